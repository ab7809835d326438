package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/qnowapp/qnow-backend/internal/model"
)

// ErrNotificationNotFound is returned when a notification row is absent.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepo stores persisted push notifications.  The data JSON
// column carries the delivery markers the webhook relay dedupes on.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo constructs a NotificationRepo with the provided DB handle.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a notification row.  Data may be nil.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	data, err := json.Marshal(orEmpty(n.Data))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO notifications (user_id, title, message, data) VALUES (?, ?, ?, ?)",
		n.UserID, n.Title, n.Message, data)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM notifications WHERE id = ?", n.ID).Scan(&n.CreatedAt)
}

// GetByID fetches a notification by ID.
func (r *NotificationRepo) GetByID(ctx context.Context, id uint64) (*model.Notification, error) {
	var n model.Notification
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, message, data, created_at FROM notifications WHERE id = ?",
		id).Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &raw, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &n.Data); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// SetData replaces the data payload of a notification.  Used to record
// delivery markers after a push attempt.
func (r *NotificationRepo) SetData(ctx context.Context, id uint64, data map[string]any) error {
	raw, err := json.Marshal(orEmpty(data))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET data = ? WHERE id = ?", raw, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing or a no-op write; confirm existence.
		var one int
		if err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM notifications WHERE id = ?", id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotificationNotFound
			}
			return err
		}
	}
	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
