package v1

import (
	"testing"
	"time"
)

func TestBatchChange_Subject(t *testing.T) {
	before := &Batch{BatchID: "B-1", ProductID: "P-old", StoreID: "S-old"}
	after := &Batch{BatchID: "B-1", ProductID: "P-new", StoreID: "S-new"}

	tests := []struct {
		name        string
		change      BatchChange
		wantStore   string
		wantProduct string
	}{
		{name: "create uses after", change: BatchChange{BatchID: "B-1", After: after}, wantStore: "S-new", wantProduct: "P-new"},
		{name: "update prefers after", change: BatchChange{BatchID: "B-1", Before: before, After: after}, wantStore: "S-new", wantProduct: "P-new"},
		{name: "delete falls back to before", change: BatchChange{BatchID: "B-1", Before: before}, wantStore: "S-old", wantProduct: "P-old"},
		{name: "no images", change: BatchChange{BatchID: "B-1"}},
		{
			name:        "after without store does not borrow from before",
			change:      BatchChange{BatchID: "B-1", Before: before, After: &Batch{BatchID: "B-1", ProductID: "P-new"}},
			wantProduct: "P-new",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, product := tt.change.Subject()
			if store != tt.wantStore || product != tt.wantProduct {
				t.Errorf("Subject() = (%q, %q), want (%q, %q)", store, product, tt.wantStore, tt.wantProduct)
			}
		})
	}
}

func TestTransactionChange_Subject(t *testing.T) {
	now := time.Now()
	deleted := &Transaction{TransactionID: "T-9", ProductID: "P-1", StoreID: "S-2", Quantity: 3, TransactionDate: now}

	change := TransactionChange{TransactionID: "T-9", Before: deleted}
	store, product := change.Subject()
	if store != "S-2" || product != "P-1" {
		t.Errorf("Subject() = (%q, %q), want (S-2, P-1)", store, product)
	}
}

func TestChange_Validation(t *testing.T) {
	if err := (&MasterChange{}).Validate(); err == nil {
		t.Error("MasterChange without product_id should be invalid")
	}
	if err := (&BatchChange{}).Validate(); err == nil {
		t.Error("BatchChange without batch_id should be invalid")
	}
	if err := (&TransactionChange{}).Validate(); err == nil {
		t.Error("TransactionChange without transaction_id should be invalid")
	}

	// Identifiers inside the images are checked by the aggregation layer, not here.
	if err := (&BatchChange{BatchID: "B-1"}).Validate(); err != nil {
		t.Errorf("BatchChange with id should be valid: %v", err)
	}
}
