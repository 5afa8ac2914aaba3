package postgres

import (
	"database/sql"
	"fmt"
	"time"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// nullTime maps an optional timestamp to a nullable column value.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func scanProductRow(row scanner) (*v1.ProductMaster, error) {
	var p v1.ProductMaster
	if err := row.Scan(&p.ProductID, &p.Name, &p.Category, &p.SellingPrice, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanBatchRow(row scanner) (*v1.Batch, error) {
	var (
		b      v1.Batch
		expiry sql.NullTime
	)
	if err := row.Scan(&b.BatchID, &b.ProductID, &b.StoreID, &b.InitialQuantity, &expiry, &b.ReceivedAt); err != nil {
		return nil, err
	}
	b.ExpiryDate = timePtr(expiry)
	return &b, nil
}

func scanTransactionRow(row scanner) (*v1.Transaction, error) {
	var tx v1.Transaction
	if err := row.Scan(&tx.TransactionID, &tx.ProductID, &tx.StoreID, &tx.Quantity, &tx.TransactionDate); err != nil {
		return nil, err
	}
	return &tx, nil
}

// scanAggregateRow scans the aggregateColumns column list.
func scanAggregateRow(row scanner) (*aggregation.AggregatedProduct, error) {
	var p aggregation.AggregatedProduct
	var expiry, lastUpdate, aiCalculated, discountExpiry sql.NullTime
	err := row.Scan(
		&p.StoreID,
		&p.ProductID,
		&p.Name,
		&p.Category,
		&p.Price,
		&p.Stock,
		&p.SalesVelocity,
		&expiry,
		&p.Percentage,
		&p.DiscountedPrice,
		&p.AIRecommendedDiscount,
		&lastUpdate,
		&aiCalculated,
		&discountExpiry,
		&p.LastAggregated,
	)
	if err != nil {
		return nil, err
	}
	p.ExpiryDate = timePtr(expiry)
	p.LastDiscountUpdate = timePtr(lastUpdate)
	p.AILastCalculated = timePtr(aiCalculated)
	p.DiscountExpiry = timePtr(discountExpiry)
	return &p, nil
}

func scanAggregateRows(rows *sql.Rows) ([]*aggregation.AggregatedProduct, error) {
	defer rows.Close()

	var out []*aggregation.AggregatedProduct
	for rows.Next() {
		p, err := scanAggregateRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}
	return out, nil
}
