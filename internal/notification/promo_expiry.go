// Package notification produces store notifications from the aggregated view.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

const (
	DefaultLookahead = 48 * time.Hour

	promoExpiryTitle = "Discount Ending Soon"
)

// Recorder counts notification attempts. result is "created" or "duplicate".
type Recorder interface {
	RecordNotification(notificationType, result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordNotification(string, string) {}

// PromoPayload is the structured part of a promo_expiry notification.
type PromoPayload struct {
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	DiscountExpiry     time.Time       `json:"discount_expiry"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// RunStats summarizes one notifier pass.
type RunStats struct {
	Candidates int
	Created    int
	Duplicates int
}

// PromoExpiryNotifier warns stores about discounts that are about to end.
// Each (store, product, expiry) is notified at most once however often it runs.
type PromoExpiryNotifier struct {
	aggregates    storage.AggregateStore
	notifications storage.NotificationStore
	lookahead     time.Duration
	recorder      Recorder
	nowFn         func() time.Time
	idFn          func() string
}

// NewPromoExpiryNotifier creates a notifier. Non-positive lookahead means
// DefaultLookahead; recorder may be nil.
func NewPromoExpiryNotifier(aggregates storage.AggregateStore, notifications storage.NotificationStore, lookahead time.Duration, recorder Recorder) *PromoExpiryNotifier {
	if aggregates == nil {
		panic("notification: aggregate store must not be nil")
	}
	if notifications == nil {
		panic("notification: notification store must not be nil")
	}
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &PromoExpiryNotifier{
		aggregates:    aggregates,
		notifications: notifications,
		lookahead:     lookahead,
		recorder:      recorder,
		nowFn:         func() time.Time { return time.Now().UTC() },
		idFn:          uuid.NewString,
	}
}

// Run finds discounts expiring within the lookahead and stores one
// notification for each that has not been notified yet.
func (n *PromoExpiryNotifier) Run(ctx context.Context) (RunStats, error) {
	now := n.nowFn()
	var stats RunStats

	expiring, err := n.aggregates.ListExpiringDiscounts(ctx, now, now.Add(n.lookahead))
	if err != nil {
		return stats, fmt.Errorf("list expiring discounts: %w", err)
	}
	stats.Candidates = len(expiring)

	for _, p := range expiring {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		note, err := n.build(p, now)
		if err != nil {
			return stats, err
		}

		err = n.notifications.SaveNotification(ctx, note)
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			stats.Duplicates++
			n.recorder.RecordNotification(v1.NotificationTypePromoExpiry, "duplicate")
		case err != nil:
			return stats, fmt.Errorf("save notification for %s: %w", p.Key(), err)
		default:
			stats.Created++
			n.recorder.RecordNotification(v1.NotificationTypePromoExpiry, "created")
			slog.Debug("[Notifier] Promo expiry notification created",
				"store_id", p.StoreID,
				"product_id", p.ProductID,
				"discount_expiry", p.DiscountExpiry)
		}
	}

	slog.Info("[Notifier] Promo expiry pass finished",
		"candidates", stats.Candidates,
		"created", stats.Created,
		"duplicates", stats.Duplicates)
	return stats, nil
}

func (n *PromoExpiryNotifier) build(p *aggregation.AggregatedProduct, now time.Time) (*v1.Notification, error) {
	if p.DiscountExpiry == nil {
		return nil, fmt.Errorf("aggregate %s has no discount expiry", p.Key())
	}
	expiry := p.DiscountExpiry.UTC()

	payload, err := json.Marshal(PromoPayload{
		ProductID:          p.ProductID,
		ProductName:        p.Name,
		DiscountExpiry:     expiry,
		DiscountPercentage: p.Percentage,
	})
	if err != nil {
		return nil, fmt.Errorf("encode payload for %s: %w", p.Key(), err)
	}

	return &v1.Notification{
		ID:        n.idFn(),
		StoreID:   p.StoreID,
		ProductID: p.ProductID,
		Type:      v1.NotificationTypePromoExpiry,
		Title:     promoExpiryTitle,
		Message:   fmt.Sprintf("Promotion on %s is about to expire.", p.Name),
		Payload:   payload,
		CreatedAt: now,
		DedupeKey: DedupeKey(p.Key(), expiry),
	}, nil
}

// DedupeKey identifies one promo expiry of one product in one store.
func DedupeKey(key aggregation.Key, expiry time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%d", v1.NotificationTypePromoExpiry, key.StoreID, key.ProductID, expiry.Unix())
}
