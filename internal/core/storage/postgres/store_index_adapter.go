package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/freshtally/freshtally/internal/core/aggregation"
)

// StoreIndexAdapter implements storage.StoreIndex over the product_stores table.
// Catalog writes maintain the table themselves; Track covers change events for
// records written elsewhere.
type StoreIndexAdapter struct {
	db *sql.DB
}

// NewStoreIndexAdapter creates a new StoreIndexAdapter sharing the given connection.
func NewStoreIndexAdapter(db *sql.DB) *StoreIndexAdapter {
	return &StoreIndexAdapter{db: db}
}

// StoresForProduct returns the stores carrying productID, in store id order.
func (a *StoreIndexAdapter) StoresForProduct(ctx context.Context, productID string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, queryStoresForProduct, productID)
	if err != nil {
		return nil, fmt.Errorf("query stores for product %s: %w", productID, err)
	}
	defer rows.Close()

	var stores []string
	for rows.Next() {
		var storeID string
		if err := rows.Scan(&storeID); err != nil {
			return nil, fmt.Errorf("scan store row: %w", err)
		}
		stores = append(stores, storeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store rows: %w", err)
	}
	return stores, nil
}

// Track records that storeID carries productID. Idempotent.
func (a *StoreIndexAdapter) Track(ctx context.Context, productID, storeID string) error {
	if _, err := a.db.ExecContext(ctx, queryTrackStore, productID, storeID); err != nil {
		return fmt.Errorf("track store %s for product %s: %w", storeID, productID, err)
	}
	return nil
}

// Pairs returns every indexed (store, product) pair.
func (a *StoreIndexAdapter) Pairs(ctx context.Context) ([]aggregation.Key, error) {
	rows, err := a.db.QueryContext(ctx, queryIndexPairs)
	if err != nil {
		return nil, fmt.Errorf("query index pairs: %w", err)
	}
	defer rows.Close()

	var keys []aggregation.Key
	for rows.Next() {
		var k aggregation.Key
		if err := rows.Scan(&k.StoreID, &k.ProductID); err != nil {
			return nil, fmt.Errorf("scan index pair: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index pairs: %w", err)
	}
	return keys, nil
}

// Rebuild repopulates the index from the batch and transaction tables.
// Existing entries are kept. Returns the number of pairs added.
func (a *StoreIndexAdapter) Rebuild(ctx context.Context) (int64, error) {
	result, err := a.db.ExecContext(ctx, queryRebuildStoreIndex)
	if err != nil {
		return 0, fmt.Errorf("rebuild store index: %w", err)
	}
	added, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rebuild store index: rows affected: %w", err)
	}

	slog.Info("[StoreIndex] Rebuilt from catalog", "added", added)
	return added, nil
}
