package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
	defaultExpiringWithin    = 72 * time.Hour
)

var (
	// ErrInvalidQuery marks request validation errors that should return HTTP 400.
	ErrInvalidQuery = errors.New("invalid query")

	validSorts = map[string]bool{"": true, "name": true, "stock": true, "velocity": true, "expiry": true}
)

// Service implements the read side of the aggregated view plus the discount
// process's write interface.
type Service struct {
	aggregates    storage.AggregateStore
	notifications storage.NotificationStore
	rebuilder     storage.StoreIndexRebuilder
	nowFn         func() time.Time
}

// NewService creates a new projection service.
func NewService(
	aggregates storage.AggregateStore,
	notifications storage.NotificationStore,
	rebuilder storage.StoreIndexRebuilder,
) *Service {
	if aggregates == nil {
		panic("projection: aggregate store must not be nil")
	}
	if notifications == nil {
		panic("projection: notification store must not be nil")
	}
	if rebuilder == nil {
		panic("projection: store index rebuilder must not be nil")
	}

	return &Service{
		aggregates:    aggregates,
		notifications: notifications,
		rebuilder:     rebuilder,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// GetProduct returns one aggregated product, or storage.ErrNotFound.
func (s *Service) GetProduct(ctx context.Context, key aggregation.Key) (*aggregation.AggregatedProduct, error) {
	if !key.Valid() {
		return nil, invalidQueryf("store_id and product_id are required")
	}
	p, err := s.aggregates.GetAggregate(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get aggregate %s: %w", key, err)
	}
	return p, nil
}

// ListProducts returns a store's aggregated products, filtered and sorted.
func (s *Service) ListProducts(ctx context.Context, storeID string, q ListQuery) ([]*aggregation.AggregatedProduct, error) {
	if storeID == "" {
		return nil, invalidQueryf("store_id is required")
	}
	if !validSorts[q.Sort] {
		return nil, invalidQueryf("invalid sort: %s (must be name, stock, velocity or expiry)", q.Sort)
	}

	products, err := s.aggregates.ListAggregatesByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list aggregates for store %s: %w", storeID, err)
	}

	if q.Category != "" {
		filtered := products[:0]
		for _, p := range products {
			if strings.EqualFold(p.Category, q.Category) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	sortProducts(products, q.Sort)
	return products, nil
}

// Summary rolls up a store's aggregated products.
func (s *Service) Summary(ctx context.Context, storeID string, expiringWithin time.Duration) (*StoreSummary, error) {
	if storeID == "" {
		return nil, invalidQueryf("store_id is required")
	}
	if expiringWithin <= 0 {
		expiringWithin = defaultExpiringWithin
	}

	products, err := s.aggregates.ListAggregatesByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list aggregates for store %s: %w", storeID, err)
	}
	return summarize(storeID, products, s.nowFn(), expiringWithin), nil
}

// UpdateDiscount applies a discount process write. Computed fields are untouched.
func (s *Service) UpdateDiscount(ctx context.Context, key aggregation.Key, u *v1.DiscountUpdate) (*aggregation.AggregatedProduct, error) {
	if !key.Valid() {
		return nil, invalidQueryf("store_id and product_id are required")
	}
	if err := u.Validate(); err != nil {
		return nil, invalidQueryf("%s", err.Error())
	}

	p, err := s.aggregates.UpdateDiscount(ctx, key, u, s.nowFn())
	if err != nil {
		return nil, fmt.Errorf("update discount %s: %w", key, err)
	}
	slog.Info("[Projection] Discount updated",
		"store_id", key.StoreID,
		"product_id", key.ProductID,
		"discount_percentage", p.Percentage.String())
	return p, nil
}

// ListNotifications returns a store's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, storeID string, limit int) ([]*v1.Notification, error) {
	if storeID == "" {
		return nil, invalidQueryf("store_id is required")
	}
	switch {
	case limit == 0:
		limit = defaultNotificationLimit
	case limit < 0 || limit > maxNotificationLimit:
		return nil, invalidQueryf("limit must be between 1 and %d", maxNotificationLimit)
	}

	notes, err := s.notifications.ListNotifications(ctx, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for store %s: %w", storeID, err)
	}
	return notes, nil
}

// RebuildStoreIndex repopulates the product-to-store index from the catalog.
func (s *Service) RebuildStoreIndex(ctx context.Context) (int64, error) {
	start := time.Now()
	pairs, err := s.rebuilder.Rebuild(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebuild store index: %w", err)
	}
	slog.Info("[Projection] Store index rebuilt", "pairs", pairs, "duration", time.Since(start))
	return pairs, nil
}

func sortProducts(products []*aggregation.AggregatedProduct, by string) {
	less := func(a, b *aggregation.AggregatedProduct) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ProductID < b.ProductID
	}

	switch by {
	case "stock":
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].Stock != products[j].Stock {
				return products[i].Stock < products[j].Stock
			}
			return less(products[i], products[j])
		})
	case "velocity":
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].SalesVelocity != products[j].SalesVelocity {
				return products[i].SalesVelocity > products[j].SalesVelocity
			}
			return less(products[i], products[j])
		})
	case "expiry":
		// Soonest first; products without an expiry go last.
		sort.SliceStable(products, func(i, j int) bool {
			a, b := products[i].ExpiryDate, products[j].ExpiryDate
			switch {
			case a != nil && b != nil && !a.Equal(*b):
				return a.Before(*b)
			case a != nil && b == nil:
				return true
			case a == nil && b != nil:
				return false
			}
			return less(products[i], products[j])
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return less(products[i], products[j])
		})
	}
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
