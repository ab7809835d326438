package model

import "time"

// Default values applied when a queue is created without explicit limits.
const (
	DefaultMaxSize       = 50
	DefaultEstimatedWait = 5
)

// Queue is a named waiting line owned by a business account.  Clients
// join a queue and are tracked by position until they are served or
// leave.  MaxSize caps the number of active (waiting or notified)
// clients; EstimatedWait is the advertised per-client wait in minutes.
//
// Fields:
//  ID              – primary key identifier.
//  BusinessOwnerID – user ID of the owning business account.
//  Name            – queue display name.
//  Description     – optional description shown to customers.
//  MaxSize         – maximum number of active clients, always > 0.
//  EstimatedWait   – estimated wait time per client in minutes.
//  IsActive        – whether the queue currently accepts joins.
//  CreatedAt       – creation timestamp.
type Queue struct {
	ID              uint64    `json:"id"`                    // queues.id
	BusinessOwnerID uint64    `json:"business_owner_id"`     // queues.business_owner_id
	Name            string    `json:"name"`                  // queues.name
	Description     *string   `json:"description,omitempty"` // queues.description (nullable)
	MaxSize         int       `json:"max_size"`              // queues.max_size
	EstimatedWait   int       `json:"estimated_wait_time"`   // queues.estimated_wait_time
	IsActive        bool      `json:"is_active"`             // queues.is_active
	CreatedAt       time.Time `json:"created_at"`            // queues.created_at
}

// QueueUpdate describes a partial update of a queue.  Nil fields are
// left unchanged.
type QueueUpdate struct {
	Name          *string
	Description   *string
	MaxSize       *int
	EstimatedWait *int
	IsActive      *bool
}
