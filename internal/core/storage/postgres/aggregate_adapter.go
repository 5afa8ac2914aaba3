package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

// AggregateAdapter implements storage.AggregateStore using PostgreSQL.
type AggregateAdapter struct {
	db *sql.DB
}

// NewAggregateAdapter creates a new AggregateAdapter sharing the given connection.
func NewAggregateAdapter(db *sql.DB) *AggregateAdapter {
	return &AggregateAdapter{db: db}
}

// GetAggregate returns storage.ErrNotFound when the pair has never been aggregated.
func (a *AggregateAdapter) GetAggregate(ctx context.Context, key aggregation.Key) (*aggregation.AggregatedProduct, error) {
	p, err := scanAggregateRow(a.db.QueryRowContext(ctx, queryGetAggregate, key.StoreID, key.ProductID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get aggregate %s: %w", key, err)
	}
	return p, nil
}

// MergeAggregate upserts computed fields. On first insert the discount fields
// of p are written as well; afterwards they are left untouched.
func (a *AggregateAdapter) MergeAggregate(ctx context.Context, p *aggregation.AggregatedProduct) error {
	_, err := a.db.ExecContext(ctx, queryMergeAggregate,
		p.StoreID,
		p.ProductID,
		p.Name,
		p.Category,
		p.Price,
		p.Stock,
		p.SalesVelocity,
		nullTime(p.ExpiryDate),
		p.Percentage,
		p.DiscountedPrice,
		p.AIRecommendedDiscount,
		nullTime(p.LastDiscountUpdate),
		nullTime(p.AILastCalculated),
		nullTime(p.DiscountExpiry),
		p.LastAggregated,
	)
	if err != nil {
		return fmt.Errorf("merge aggregate %s: %w", p.Key(), err)
	}

	slog.Debug("[AggregateAdapter] Merged aggregate",
		"store_id", p.StoreID,
		"product_id", p.ProductID,
		"stock", p.Stock)
	return nil
}

// ListAggregatesByStore returns every aggregated product of one store.
func (a *AggregateAdapter) ListAggregatesByStore(ctx context.Context, storeID string) ([]*aggregation.AggregatedProduct, error) {
	rows, err := a.db.QueryContext(ctx, queryListAggregatesByStore, storeID)
	if err != nil {
		return nil, fmt.Errorf("list aggregates for store %s: %w", storeID, err)
	}
	return scanAggregateRows(rows)
}

// UpdateDiscount writes only the discount fields present in u and stamps the
// matching update timestamps with now.
func (a *AggregateAdapter) UpdateDiscount(
	ctx context.Context,
	key aggregation.Key,
	u *v1.DiscountUpdate,
	now time.Time,
) (*aggregation.AggregatedProduct, error) {
	p, err := scanAggregateRow(a.db.QueryRowContext(ctx, queryUpdateDiscount,
		key.StoreID,
		key.ProductID,
		nullDecimal(u.Percentage),
		nullDecimal(u.DiscountedPrice),
		nullDecimal(u.AIRecommendedDiscount),
		nullTime(u.DiscountExpiry),
		now,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update discount %s: %w", key, err)
	}

	slog.Info("[AggregateAdapter] Discount updated",
		"store_id", key.StoreID,
		"product_id", key.ProductID,
		"discount_percentage", p.Percentage.String())
	return p, nil
}

// ListExpiringDiscounts returns records whose discount expiry falls in [from, to].
func (a *AggregateAdapter) ListExpiringDiscounts(ctx context.Context, from, to time.Time) ([]*aggregation.AggregatedProduct, error) {
	rows, err := a.db.QueryContext(ctx, queryListExpiringDiscounts, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expiring discounts: %w", err)
	}
	return scanAggregateRows(rows)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
