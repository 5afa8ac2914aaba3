package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a record with the same identity already exists.
	ErrDuplicate = errors.New("record already exists")
)

// CatalogReader reads the raw records aggregation is computed from.
type CatalogReader interface {
	// GetProduct returns ErrNotFound when the product has no master record.
	GetProduct(ctx context.Context, productID string) (*v1.ProductMaster, error)

	// ListBatchesByProduct returns every batch of the product across all stores.
	ListBatchesByProduct(ctx context.Context, productID string) ([]*v1.Batch, error)

	// ListTransactions returns the sales of one product in one store.
	ListTransactions(ctx context.Context, productID, storeID string) ([]*v1.Transaction, error)
}

// CatalogWriter persists raw records. Mutations return the image that was
// replaced or removed so callers can build change events from it.
type CatalogWriter interface {
	// UpsertProduct returns the previous master record, or nil on creation.
	UpsertProduct(ctx context.Context, p *v1.ProductMaster) (*v1.ProductMaster, error)
	DeleteProduct(ctx context.Context, productID string) (*v1.ProductMaster, error)

	// CreateBatch returns ErrDuplicate when the batch id is taken.
	CreateBatch(ctx context.Context, b *v1.Batch) error
	DeleteBatch(ctx context.Context, batchID string) (*v1.Batch, error)

	// CreateTransaction returns ErrDuplicate when the transaction id is taken.
	CreateTransaction(ctx context.Context, tx *v1.Transaction) error
	DeleteTransaction(ctx context.Context, transactionID string) (*v1.Transaction, error)
}

// AggregateStore persists aggregated products.
type AggregateStore interface {
	// GetAggregate returns ErrNotFound when the pair was never aggregated.
	GetAggregate(ctx context.Context, key aggregation.Key) (*aggregation.AggregatedProduct, error)

	// MergeAggregate writes computed fields. Discount fields are only written
	// when the record is first created.
	MergeAggregate(ctx context.Context, p *aggregation.AggregatedProduct) error

	ListAggregatesByStore(ctx context.Context, storeID string) ([]*aggregation.AggregatedProduct, error)

	// UpdateDiscount writes discount fields only. Returns ErrNotFound when the
	// pair was never aggregated.
	UpdateDiscount(ctx context.Context, key aggregation.Key, u *v1.DiscountUpdate, now time.Time) (*aggregation.AggregatedProduct, error)

	// ListExpiringDiscounts returns records whose discount expiry falls in [from, to].
	ListExpiringDiscounts(ctx context.Context, from, to time.Time) ([]*aggregation.AggregatedProduct, error)
}

// StoreIndex maps a product to the stores that carry it.
// Entries are added as batches and sales arrive and are never removed.
type StoreIndex interface {
	StoresForProduct(ctx context.Context, productID string) ([]string, error)
	Track(ctx context.Context, productID, storeID string) error

	// Pairs returns every indexed (store, product) pair.
	Pairs(ctx context.Context) ([]aggregation.Key, error)
}

// StoreIndexRebuilder repopulates a store index from the raw catalog.
type StoreIndexRebuilder interface {
	Rebuild(ctx context.Context) (int64, error)
}

// NotificationStore persists store notifications.
type NotificationStore interface {
	// SaveNotification returns ErrDuplicate when the dedupe key was already used.
	SaveNotification(ctx context.Context, n *v1.Notification) error
	ListNotifications(ctx context.Context, storeID string, limit int) ([]*v1.Notification, error)
}
