package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/freshtally/freshtally/internal/core/aggregation"
)

// ListQuery filters and orders a store's aggregated products.
type ListQuery struct {
	Category string `form:"category"`
	Sort     string `form:"sort"` // name (default) | stock | velocity | expiry
}

// StoreSummary rolls a store's aggregated products up into headline figures.
type StoreSummary struct {
	StoreID          string          `json:"store_id"`
	Products         int             `json:"products"`
	OutOfStock       int             `json:"out_of_stock"`
	TotalStock       int64           `json:"total_stock"`
	UnitsPerDay      float64         `json:"units_per_day"`
	InventoryValue   decimal.Decimal `json:"inventory_value"`
	Discounted       int             `json:"discounted"`
	ExpiringSoon     int             `json:"expiring_soon"`
	ExpiringWithin   string          `json:"expiring_within"`
	Categories       []CategoryTotal `json:"categories"`
	OldestAggregated *time.Time      `json:"oldest_aggregated,omitempty"`
}

// CategoryTotal is one category's share of a StoreSummary.
type CategoryTotal struct {
	Category       string          `json:"category"`
	Products       int             `json:"products"`
	Stock          int64           `json:"stock"`
	UnitsPerDay    float64         `json:"units_per_day"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
}

// ProductListResponse wraps a store listing.
type ProductListResponse struct {
	StoreID  string                           `json:"store_id"`
	Products []*aggregation.AggregatedProduct `json:"products"`
}

// RebuildResponse reports a store index rebuild.
type RebuildResponse struct {
	Pairs int64 `json:"pairs"`
}
