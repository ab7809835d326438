package model

import "time"

// Delivery marker values recorded in a notification's data payload.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Notification is a persisted push notification for a registered user.
// Delivery bookkeeping lives inside the Data map: push_sent_at marks a
// successful send (the deduplication marker), delivery_status and
// delivery_error record the outcome of the last attempt.
type Notification struct {
	ID        uint64         `json:"id"`      // notifications.id
	UserID    uint64         `json:"user_id"` // notifications.user_id
	Title     string         `json:"title"`   // notifications.title
	Message   string         `json:"message"` // notifications.message
	Data      map[string]any `json:"data"`    // notifications.data (JSON column)
	CreatedAt time.Time      `json:"created_at"`
}

// Sent reports whether the push for this notification already went out.
func (n *Notification) Sent() bool {
	if n.Data == nil {
		return false
	}
	v, ok := n.Data["push_sent_at"]
	return ok && v != nil && v != ""
}
