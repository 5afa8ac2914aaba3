package aggregation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Fallbacks written when the master record carries no value.
const (
	UnknownProductName = "Unknown Product"
	DefaultCategory    = "Uncategorized"
)

// Key uniquely identifies an aggregated product record.
type Key struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.StoreID, k.ProductID)
}

// Valid reports whether both halves of the key are present.
func (k Key) Valid() bool {
	return k.StoreID != "" && k.ProductID != ""
}

// BatchScope decides which batches count toward a store's stock and expiry.
type BatchScope string

const (
	// ScopeGlobal counts every batch of the product regardless of the store it was received in.
	ScopeGlobal BatchScope = "global"
	// ScopeStore counts only batches received by the target store.
	ScopeStore BatchScope = "store"
)

// ParseBatchScope validates a configured scope. Empty means ScopeGlobal.
func ParseBatchScope(s string) (BatchScope, error) {
	switch BatchScope(s) {
	case "", ScopeGlobal:
		return ScopeGlobal, nil
	case ScopeStore:
		return ScopeStore, nil
	default:
		return "", fmt.Errorf("invalid batch_scope %q: must be %q or %q", s, ScopeGlobal, ScopeStore)
	}
}

// includes reports whether a batch received by batchStore counts for key.
func (s BatchScope) includes(key Key, batchStore string) bool {
	if s == ScopeStore {
		return batchStore == key.StoreID
	}
	return true
}

// Discount holds the fields owned by the discount process.
// Recomputation never changes them once a record exists.
type Discount struct {
	Percentage            decimal.Decimal `json:"discount_percentage"`
	DiscountedPrice       decimal.Decimal `json:"discounted_price"`
	AIRecommendedDiscount decimal.Decimal `json:"ai_recommended_discount"`
	LastDiscountUpdate    *time.Time      `json:"last_discount_update,omitempty"`
	AILastCalculated      *time.Time      `json:"ai_last_calculated,omitempty"`
	DiscountExpiry        *time.Time      `json:"discount_expiry,omitempty"`
}

// AggregatedProduct is the derived per-store view of a product.
type AggregatedProduct struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`

	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`

	Stock         int64      `json:"stock"`
	SalesVelocity float64    `json:"sales_velocity"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`

	Discount

	LastAggregated time.Time `json:"last_aggregated"`
}

// Key returns the record's identity.
func (p *AggregatedProduct) Key() Key {
	return Key{StoreID: p.StoreID, ProductID: p.ProductID}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
