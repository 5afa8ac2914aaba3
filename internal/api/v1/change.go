package v1

import "fmt"

// MasterChange describes a write to a product master record.
// Before is nil on creation, After is nil on deletion.
type MasterChange struct {
	ProductID string         `json:"product_id"`
	Before    *ProductMaster `json:"before,omitempty"`
	After     *ProductMaster `json:"after,omitempty"`
}

// Validate ensures the change names the product it concerns.
func (c *MasterChange) Validate() error {
	if c.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	return nil
}

// BatchChange describes a create, update or delete of a batch.
type BatchChange struct {
	BatchID string `json:"batch_id"`
	Before  *Batch `json:"before,omitempty"`
	After   *Batch `json:"after,omitempty"`
}

// Validate ensures the change names the batch it concerns.
func (c *BatchChange) Validate() error {
	if c.BatchID == "" {
		return fmt.Errorf("batch_id is required")
	}
	return nil
}

// Subject returns the (store, product) the change affects. The post-change
// image wins; the pre-change image is used for deletions. Either value may be
// empty when the record lacks it.
func (c *BatchChange) Subject() (storeID, productID string) {
	switch {
	case c.After != nil:
		return c.After.StoreID, c.After.ProductID
	case c.Before != nil:
		return c.Before.StoreID, c.Before.ProductID
	default:
		return "", ""
	}
}

// TransactionChange describes a create, update or delete of a sales transaction.
type TransactionChange struct {
	TransactionID string       `json:"transaction_id"`
	Before        *Transaction `json:"before,omitempty"`
	After         *Transaction `json:"after,omitempty"`
}

// Validate ensures the change names the transaction it concerns.
func (c *TransactionChange) Validate() error {
	if c.TransactionID == "" {
		return fmt.Errorf("transaction_id is required")
	}
	return nil
}

// Subject follows the same after-then-before rule as BatchChange.Subject.
func (c *TransactionChange) Subject() (storeID, productID string) {
	switch {
	case c.After != nil:
		return c.After.StoreID, c.After.ProductID
	case c.Before != nil:
		return c.Before.StoreID, c.Before.ProductID
	default:
		return "", ""
	}
}
