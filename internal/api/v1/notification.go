package v1

import (
	"encoding/json"
	"time"
)

// NotificationTypePromoExpiry marks a discount that is about to end.
const NotificationTypePromoExpiry = "promo_expiry"

// Notification is a store-facing message produced by a scheduled job.
type Notification struct {
	ID        string          `json:"id"`
	StoreID   string          `json:"store_id"`
	ProductID string          `json:"product_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`

	// DedupeKey makes repeated job runs idempotent. Not exposed.
	DedupeKey string `json:"-"`
}
