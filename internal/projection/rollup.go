package projection

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freshtally/freshtally/internal/core/aggregation"
)

// summarize folds a store's products into a StoreSummary. Inventory value is
// stock at shelf price. A product is expiring soon when its nearest batch
// expiry falls within the window; it is discounted when its percentage is positive.
func summarize(storeID string, products []*aggregation.AggregatedProduct, now time.Time, expiringWithin time.Duration) *StoreSummary {
	summary := &StoreSummary{
		StoreID:        storeID,
		InventoryValue: decimal.Zero,
		ExpiringWithin: expiringWithin.String(),
		Categories:     []CategoryTotal{},
	}

	horizon := now.Add(expiringWithin)
	byCategory := make(map[string]*CategoryTotal)

	for _, p := range products {
		value := p.Price.Mul(decimal.NewFromInt(p.Stock))

		summary.Products++
		summary.TotalStock += p.Stock
		summary.UnitsPerDay += p.SalesVelocity
		summary.InventoryValue = summary.InventoryValue.Add(value)

		if p.Stock == 0 {
			summary.OutOfStock++
		}
		if p.Percentage.IsPositive() {
			summary.Discounted++
		}
		if p.ExpiryDate != nil && !p.ExpiryDate.After(horizon) {
			summary.ExpiringSoon++
		}
		if summary.OldestAggregated == nil || p.LastAggregated.Before(*summary.OldestAggregated) {
			t := p.LastAggregated
			summary.OldestAggregated = &t
		}

		cat, ok := byCategory[p.Category]
		if !ok {
			cat = &CategoryTotal{Category: p.Category, InventoryValue: decimal.Zero}
			byCategory[p.Category] = cat
		}
		cat.Products++
		cat.Stock += p.Stock
		cat.UnitsPerDay += p.SalesVelocity
		cat.InventoryValue = cat.InventoryValue.Add(value)
	}

	for _, cat := range byCategory {
		summary.Categories = append(summary.Categories, *cat)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].Category < summary.Categories[j].Category
	})

	return summary
}
