package postgres

import (
	"context"
	"database/sql"
	"fmt"

	v1 "github.com/freshtally/freshtally/internal/api/v1"
	"github.com/freshtally/freshtally/internal/core/storage"
)

// NotificationAdapter implements storage.NotificationStore using PostgreSQL.
type NotificationAdapter struct {
	db *sql.DB
}

// NewNotificationAdapter creates a new NotificationAdapter sharing the given connection.
func NewNotificationAdapter(db *sql.DB) *NotificationAdapter {
	return &NotificationAdapter{db: db}
}

// SaveNotification inserts n. Returns storage.ErrDuplicate when its dedupe key exists.
func (a *NotificationAdapter) SaveNotification(ctx context.Context, n *v1.Notification) error {
	var payload []byte
	if len(n.Payload) > 0 {
		payload = n.Payload
	}

	result, err := a.db.ExecContext(ctx, queryInsertNotification,
		n.ID,
		n.StoreID,
		n.ProductID,
		n.Type,
		n.Title,
		n.Message,
		payload,
		n.DedupeKey,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save notification: rows affected: %w", err)
	}
	if inserted == 0 {
		return storage.ErrDuplicate
	}
	return nil
}

// ListNotifications returns the newest notifications of a store first.
func (a *NotificationAdapter) ListNotifications(ctx context.Context, storeID string, limit int) ([]*v1.Notification, error) {
	rows, err := a.db.QueryContext(ctx, queryListNotifications, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*v1.Notification
	for rows.Next() {
		var (
			n       v1.Notification
			payload []byte
		)
		if err := rows.Scan(&n.ID, &n.StoreID, &n.ProductID, &n.Type, &n.Title, &n.Message, &payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		if len(payload) > 0 {
			n.Payload = payload
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}
	return out, nil
}
