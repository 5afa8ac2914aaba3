package aggregation

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ExtractDecimal pulls a numeric value from a raw record by field name.
// Returns decimal.Zero if the field is missing, empty, or not a recognized numeric type.
func ExtractDecimal(data map[string]interface{}, field string) decimal.Decimal {
	if field == "" {
		return decimal.Zero
	}
	v, ok := data[field]
	if !ok {
		return decimal.Zero
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt(int64(val))
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err == nil {
			return d
		}
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

// ExtractQuantity is ExtractDecimal truncated to whole units.
func ExtractQuantity(data map[string]interface{}, field string) int64 {
	return ExtractDecimal(data, field).IntPart()
}
