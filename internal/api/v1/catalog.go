package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductMaster is the catalog's authoritative record for a product.
// It is owned by the catalog process; the aggregation core only reads it.
type ProductMaster struct {
	// ProductID is the catalog identifier. It is shared by every store that carries the product.
	ProductID string `json:"product_id"`

	Name     string `json:"name"`
	Category string `json:"category"`

	// SellingPrice is the shelf price before any discount.
	SellingPrice decimal.Decimal `json:"selling_price"`

	// UpdatedAt is set by the write path, not the client.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate ensures the product carries its identity and a sane price.
func (p *ProductMaster) Validate() error {
	if p.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if p.SellingPrice.IsNegative() {
		return fmt.Errorf("selling_price must not be negative")
	}
	return nil
}

// Batch is one received lot of stock.
// Batches are created on receipt and otherwise only ever deleted.
type Batch struct {
	BatchID   string `json:"batch_id"`
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id"`

	// InitialQuantity is the number of units received in this lot.
	InitialQuantity int64 `json:"initial_quantity"`

	// ExpiryDate is absent for non-perishable lots.
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`

	ReceivedAt time.Time `json:"received_at"`
}

// Validate ensures the batch can be stored. StoreID and ProductID are not
// enforced here: change events for legacy lots may lack them and are skipped
// by the aggregation layer instead.
func (b *Batch) Validate() error {
	if b.BatchID == "" {
		return fmt.Errorf("batch_id is required")
	}
	if b.InitialQuantity < 0 {
		return fmt.Errorf("initial_quantity must not be negative")
	}
	return nil
}

// Transaction is one sale of a product in a store. Transactions are append-only;
// a deletion reverses the sale's contribution to stock and velocity.
type Transaction struct {
	TransactionID   string    `json:"transaction_id"`
	ProductID       string    `json:"product_id"`
	StoreID         string    `json:"store_id"`
	Quantity        int64     `json:"quantity"`
	TransactionDate time.Time `json:"transaction_date"`
}

// Validate ensures the transaction can be stored.
func (t *Transaction) Validate() error {
	if t.TransactionID == "" {
		return fmt.Errorf("transaction_id is required")
	}
	if t.TransactionDate.IsZero() {
		return fmt.Errorf("transaction_date is required")
	}
	return nil
}
