package aggregation

import (
	"time"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
)

// ResolveExpiry returns the earliest expiry strictly after now among the
// batches in scope, or nil when none qualifies.
func ResolveExpiry(key Key, batches []*v1.Batch, now time.Time, scope BatchScope) *time.Time {
	var nearest *time.Time
	for _, b := range batches {
		if b == nil || b.ExpiryDate == nil || b.ProductID != key.ProductID || !scope.includes(key, b.StoreID) {
			continue
		}
		if !b.ExpiryDate.After(now) {
			continue
		}
		if nearest == nil || b.ExpiryDate.Before(*nearest) {
			nearest = b.ExpiryDate
		}
	}
	return cloneTime(nearest)
}
