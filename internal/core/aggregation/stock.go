package aggregation

import (
	v1 "github.com/freshtally/freshtally/internal/api/v1"
)

// ComputeStock returns units on hand for key: received units of the batches in
// scope minus units sold in the store, clamped at zero.
//
// batches may hold every batch of the product; scope decides which count.
// Transactions of other products or stores are ignored.
func ComputeStock(key Key, batches []*v1.Batch, txs []*v1.Transaction, scope BatchScope) int64 {
	var received, sold int64
	for _, b := range batches {
		if b == nil || b.ProductID != key.ProductID || !scope.includes(key, b.StoreID) {
			continue
		}
		received += b.InitialQuantity
	}
	for _, tx := range txs {
		if tx == nil || tx.ProductID != key.ProductID || tx.StoreID != key.StoreID {
			continue
		}
		sold += tx.Quantity
	}

	if stock := received - sold; stock > 0 {
		return stock
	}
	return 0
}
