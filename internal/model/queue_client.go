package model

import "time"

// ClientStatus is the closed set of states a queue client moves through.
// The happy path is waiting -> notified -> served; waiting or notified
// clients may also be cancelled.  Served and cancelled are terminal.
type ClientStatus string

const (
	StatusWaiting   ClientStatus = "waiting"
	StatusNotified  ClientStatus = "notified"
	StatusServed    ClientStatus = "served"
	StatusCancelled ClientStatus = "cancelled"
)

// transitions encodes the legal forward moves of the status machine.
var transitions = map[ClientStatus][]ClientStatus{
	StatusWaiting:  {StatusNotified, StatusServed, StatusCancelled},
	StatusNotified: {StatusServed, StatusCancelled},
}

// Valid reports whether s is one of the known statuses.
func (s ClientStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusNotified, StatusServed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s ClientStatus) Terminal() bool {
	return s == StatusServed || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is legal.
// A no-op transition (same status) is not considered legal; callers
// that want idempotent behavior must check equality themselves.
func (s ClientStatus) CanTransitionTo(next ClientStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// QueueClient is one client's placement within a queue.  Anonymous
// walk-ins are allowed, so UserID may be nil while Name and Phone carry
// the contact details taken at the counter.
//
// Fields:
//  ID         – primary key identifier.
//  QueueID    – queue the client belongs to.
//  UserID     – registered account, nil for anonymous joins.
//  Name       – display name taken at join time.
//  Phone      – contact phone taken at join time.
//  Position   – 1-based place in line, assigned monotonically at join.
//  Status     – current state in the status machine above.
//  JoinedAt   – when the client joined the queue.
//  NotifiedAt – when a "you are next" notification was dispatched.
//  ServedAt   – when the client was marked served.
type QueueClient struct {
	ID         uint64       `json:"id"`                    // queue_clients.id
	QueueID    uint64       `json:"queue_id"`              // queue_clients.queue_id
	UserID     *uint64      `json:"user_id,omitempty"`     // queue_clients.user_id (nullable)
	Name       string       `json:"name"`                  // queue_clients.name
	Phone      string       `json:"phone"`                 // queue_clients.phone
	Position   int          `json:"position"`              // queue_clients.position
	Status     ClientStatus `json:"status"`                // queue_clients.status
	JoinedAt   time.Time    `json:"joined_at"`             // queue_clients.joined_at
	NotifiedAt *time.Time   `json:"notified_at,omitempty"` // queue_clients.notified_at (nullable)
	ServedAt   *time.Time   `json:"served_at,omitempty"`   // queue_clients.served_at (nullable)
}

// Active reports whether the client still occupies a slot in the line.
func (q *QueueClient) Active() bool {
	return q.Status == StatusWaiting || q.Status == StatusNotified
}

// ClientUpdate describes a partial update of a queue client.  Nil
// fields are left unchanged.
type ClientUpdate struct {
	Status     *ClientStatus
	Position   *int
	NotifiedAt *time.Time
	ServedAt   *time.Time
}
