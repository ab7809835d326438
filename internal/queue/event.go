// Package queue defines message payloads exchanged over the message
// broker, the publisher used by the dispatcher, and the background
// consumer that performs the actual push delivery.
package queue

// Kinds of notification events.
const (
	KindNext        = "next"         // "you are next in line"
	KindTurn        = "turn"         // "it is your turn"
	KindQueueStatus = "queue_status" // queue-wide status change
)

// NotificationEvent is published when the dispatcher triggers an
// outbound notification.  It carries enough information for the
// delivery consumer to send a push without querying the primary
// database.
type NotificationEvent struct {
	EventID     string  `json:"event_id"`
	Kind        string  `json:"kind"`
	ClientID    uint64  `json:"client_id"`
	QueueID     uint64  `json:"queue_id"`
	QueueName   string  `json:"queue_name"`
	QueueStatus string  `json:"queue_status,omitempty"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	UserID      *uint64 `json:"user_id,omitempty"`
	FCMToken    *string `json:"fcm_token,omitempty"`
	Position    int     `json:"position"`
	SentAt      string  `json:"sent_at"`
}

// Title builds the push title for the event.
func (e NotificationEvent) Title() string {
	switch e.Kind {
	case KindNext:
		return "You're next!"
	case KindTurn:
		return "It's your turn!"
	default:
		return "Queue update"
	}
}

// Body builds the push body for the event.
func (e NotificationEvent) Body() string {
	switch e.Kind {
	case KindNext:
		return "You're next in line at " + e.QueueName + "."
	case KindTurn:
		return "It's your turn at " + e.QueueName + "."
	default:
		return "The queue " + e.QueueName + " is now " + e.QueueStatus + "."
	}
}
