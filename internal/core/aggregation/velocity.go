package aggregation

import (
	"time"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
)

// ComputeVelocity returns average units sold per day for key over the trailing
// window ending at now. The denominator is the full window length, not the
// number of days that had sales.
func ComputeVelocity(key Key, txs []*v1.Transaction, now time.Time, window WindowSpec) float64 {
	days := window.Days()
	if days <= 0 {
		return 0
	}

	since := now.Add(-window.Size)
	var sold int64
	for _, tx := range txs {
		if tx == nil || tx.ProductID != key.ProductID || tx.StoreID != key.StoreID {
			continue
		}
		if tx.TransactionDate.Before(since) {
			continue
		}
		sold += tx.Quantity
	}

	if sold <= 0 {
		return 0
	}
	return float64(sold) / days
}
