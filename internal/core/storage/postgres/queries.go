package postgres

// SQL for catalog reads and writes. Writes select the current row FOR UPDATE
// first so the replaced image can be returned to the caller.

const (
	queryGetProduct = `
		SELECT product_id, name, category, selling_price, updated_at
		FROM products
		WHERE product_id = $1
	`

	queryListBatchesByProduct = `
		SELECT batch_id, product_id, store_id, initial_quantity, expiry_date, received_at
		FROM batches
		WHERE product_id = $1
		ORDER BY received_at ASC, batch_id ASC
	`

	queryListTransactions = `
		SELECT transaction_id, product_id, store_id, quantity, transaction_date
		FROM transactions
		WHERE product_id = $1
		  AND store_id = $2
		ORDER BY transaction_date ASC, transaction_id ASC
	`

	queryLockProduct = `
		SELECT product_id, name, category, selling_price, updated_at
		FROM products
		WHERE product_id = $1
		FOR UPDATE
	`

	queryUpsertProduct = `
		INSERT INTO products (product_id, name, category, selling_price, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO UPDATE SET
			name          = EXCLUDED.name,
			category      = EXCLUDED.category,
			selling_price = EXCLUDED.selling_price,
			updated_at    = EXCLUDED.updated_at
	`

	queryDeleteProduct = `DELETE FROM products WHERE product_id = $1`

	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	queryInsertBatch = `
		INSERT INTO batches (batch_id, product_id, store_id, initial_quantity, expiry_date, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (batch_id) DO NOTHING
		RETURNING batch_id
	`

	queryDeleteBatch = `
		DELETE FROM batches
		WHERE batch_id = $1
		RETURNING batch_id, product_id, store_id, initial_quantity, expiry_date, received_at
	`

	queryInsertTransaction = `
		INSERT INTO transactions (transaction_id, product_id, store_id, quantity, transaction_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transaction_id) DO NOTHING
		RETURNING transaction_id
	`

	queryDeleteTransaction = `
		DELETE FROM transactions
		WHERE transaction_id = $1
		RETURNING transaction_id, product_id, store_id, quantity, transaction_date
	`

	queryTrackStore = `
		INSERT INTO product_stores (product_id, store_id)
		VALUES ($1, $2)
		ON CONFLICT (product_id, store_id) DO NOTHING
	`
)

// SQL for the store index.
const (
	queryStoresForProduct = `
		SELECT store_id
		FROM product_stores
		WHERE product_id = $1
		ORDER BY store_id ASC
	`

	queryIndexPairs = `
		SELECT store_id, product_id
		FROM product_stores
		ORDER BY store_id ASC, product_id ASC
	`

	queryRebuildStoreIndex = `
		INSERT INTO product_stores (product_id, store_id)
		SELECT DISTINCT product_id, store_id FROM (
			SELECT product_id, store_id FROM batches
			UNION
			SELECT product_id, store_id FROM transactions
		) carried
		WHERE product_id <> '' AND store_id <> ''
		ON CONFLICT (product_id, store_id) DO NOTHING
	`
)

// SQL for aggregated products.
const (
	aggregateColumns = `
		store_id, product_id, name, category, price, stock, sales_velocity, expiry_date,
		discount_percentage, discounted_price, ai_recommended_discount,
		last_discount_update, ai_last_calculated, discount_expiry, last_aggregated
	`

	queryGetAggregate = `
		SELECT` + aggregateColumns + `
		FROM aggregated_products
		WHERE store_id = $1 AND product_id = $2
	`

	// Discount columns are set on insert only; the conflict branch leaves them alone
	// so writes from the discount process survive recomputation.
	queryMergeAggregate = `
		INSERT INTO aggregated_products (` + aggregateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (store_id, product_id) DO UPDATE SET
			name            = EXCLUDED.name,
			category        = EXCLUDED.category,
			price           = EXCLUDED.price,
			stock           = EXCLUDED.stock,
			sales_velocity  = EXCLUDED.sales_velocity,
			expiry_date     = EXCLUDED.expiry_date,
			last_aggregated = EXCLUDED.last_aggregated
	`

	queryListAggregatesByStore = `
		SELECT` + aggregateColumns + `
		FROM aggregated_products
		WHERE store_id = $1
		ORDER BY product_id ASC
	`

	// NULL parameters keep the stored value. A new percentage without an explicit
	// discounted price re-derives the discounted price from the current price.
	queryUpdateDiscount = `
		UPDATE aggregated_products SET
			discount_percentage     = COALESCE($3, discount_percentage),
			discounted_price        = COALESCE($4,
				CASE WHEN $3::NUMERIC IS NULL THEN discounted_price
				     ELSE ROUND(price * (100 - $3::NUMERIC) / 100, 2)
				END),
			ai_recommended_discount = COALESCE($5, ai_recommended_discount),
			discount_expiry         = COALESCE($6, discount_expiry),
			last_discount_update    = CASE WHEN $3::NUMERIC IS NULL AND $4::NUMERIC IS NULL AND $6::TIMESTAMPTZ IS NULL
			                               THEN last_discount_update ELSE $7 END,
			ai_last_calculated      = CASE WHEN $5::NUMERIC IS NULL THEN ai_last_calculated ELSE $7 END
		WHERE store_id = $1 AND product_id = $2
		RETURNING` + aggregateColumns

	queryListExpiringDiscounts = `
		SELECT` + aggregateColumns + `
		FROM aggregated_products
		WHERE discount_expiry IS NOT NULL
		  AND discount_expiry >= $1
		  AND discount_expiry <= $2
		ORDER BY discount_expiry ASC, store_id ASC, product_id ASC
	`
)

// SQL for notifications.
const (
	queryInsertNotification = `
		INSERT INTO notifications (id, store_id, product_id, type, title, message, payload, dedupe_key, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (dedupe_key) DO NOTHING
	`

	queryListNotifications = `
		SELECT id, store_id, product_id, type, title, message, payload, read, created_at
		FROM notifications
		WHERE store_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`
)
