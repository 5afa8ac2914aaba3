package aggregation

import (
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
)

// Inputs are the independently computed parts of one aggregated product.
type Inputs struct {
	Master   *v1.ProductMaster
	Stock    int64
	Velocity float64
	Expiry   *time.Time
}

// Merge builds the new record for key. Computed fields come from in; discount
// fields are carried over from previous, or defaulted when there is none.
// The result depends only on its arguments, so merging unchanged inputs again
// differs only in LastAggregated.
func Merge(key Key, in Inputs, previous *AggregatedProduct, now time.Time) AggregatedProduct {
	var (
		name     = UnknownProductName
		category = DefaultCategory
		price    = decimal.Zero
	)
	if in.Master != nil {
		if in.Master.Name != "" {
			name = in.Master.Name
		}
		if in.Master.Category != "" {
			category = in.Master.Category
		}
		price = in.Master.SellingPrice
	}

	out := AggregatedProduct{
		StoreID:        key.StoreID,
		ProductID:      key.ProductID,
		Name:           name,
		Category:       category,
		Price:          price,
		Stock:          in.Stock,
		SalesVelocity:  in.Velocity,
		ExpiryDate:     cloneTime(in.Expiry),
		LastAggregated: now,
	}

	if previous != nil {
		out.Discount = previous.Discount.clone()
	} else {
		out.Discount = Discount{
			Percentage:            decimal.Zero,
			DiscountedPrice:       price,
			AIRecommendedDiscount: decimal.Zero,
		}
	}
	return out
}

func (d Discount) clone() Discount {
	d.LastDiscountUpdate = cloneTime(d.LastDiscountUpdate)
	d.AILastCalculated = cloneTime(d.AILastCalculated)
	d.DiscountExpiry = cloneTime(d.DiscountExpiry)
	return d
}
