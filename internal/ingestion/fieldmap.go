package ingestion

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Canonical POS sale fields. A FieldMap maps each onto the column name a
// particular POS export uses.
const (
	FieldProductName   = "productName"
	FieldQuantity      = "quantity"
	FieldUnitPrice     = "unitPrice"
	FieldTimestamp     = "transaction_timestamp"
	FieldSKU           = "sku"
	FieldProductID     = "productId"
	FieldTransactionID = "transactionId"
)

var canonicalFields = []string{
	FieldProductName,
	FieldQuantity,
	FieldUnitPrice,
	FieldTimestamp,
	FieldSKU,
	FieldProductID,
	FieldTransactionID,
}

// FieldMap maps canonical field names to source record keys.
type FieldMap map[string]string

// DefaultFieldMap maps every canonical field to itself.
func DefaultFieldMap() FieldMap {
	m := make(FieldMap, len(canonicalFields))
	for _, f := range canonicalFields {
		m[f] = f
	}
	return m
}

// Source returns the record key holding the canonical field.
func (m FieldMap) Source(field string) string {
	if src, ok := m[field]; ok && src != "" {
		return src
	}
	return field
}

// LoadFieldMap reads a YAML field map. Fields it omits keep their canonical name.
func LoadFieldMap(path string) (FieldMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field map %q: %w", path, err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse field map %q: %w", path, err)
	}

	m := DefaultFieldMap()
	var unknown []string
	for field, src := range overrides {
		if _, ok := m[field]; !ok {
			unknown = append(unknown, field)
			continue
		}
		if src != "" {
			m[field] = src
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("field map %q has unknown fields %v", path, unknown)
	}
	return m, nil
}
