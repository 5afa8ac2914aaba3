package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountUpdate is a partial write of discount-owned fields by the pricing process.
// Absent fields keep their stored value.
type DiscountUpdate struct {
	Percentage            *decimal.Decimal `json:"discount_percentage,omitempty"`
	DiscountedPrice       *decimal.Decimal `json:"discounted_price,omitempty"`
	AIRecommendedDiscount *decimal.Decimal `json:"ai_recommended_discount,omitempty"`
	DiscountExpiry        *time.Time       `json:"discount_expiry,omitempty"`
}

// Validate rejects empty updates and out-of-range percentages.
func (u *DiscountUpdate) Validate() error {
	if u.Percentage == nil && u.DiscountedPrice == nil && u.AIRecommendedDiscount == nil && u.DiscountExpiry == nil {
		return fmt.Errorf("at least one discount field is required")
	}
	if err := checkPercentage("discount_percentage", u.Percentage); err != nil {
		return err
	}
	if err := checkPercentage("ai_recommended_discount", u.AIRecommendedDiscount); err != nil {
		return err
	}
	if u.DiscountedPrice != nil && u.DiscountedPrice.IsNegative() {
		return fmt.Errorf("discounted_price must not be negative")
	}
	return nil
}

func checkPercentage(field string, v *decimal.Decimal) error {
	if v == nil {
		return nil
	}
	if v.IsNegative() || v.GreaterThan(hundred) {
		return fmt.Errorf("%s must be between 0 and 100", field)
	}
	return nil
}
