// Package waitlist implements the queue and membership domain logic:
// queue CRUD, capacity-checked joins with server-assigned positions, and
// status-machine enforcement on membership updates.  It talks to storage
// through narrow store interfaces so the logic is testable against
// in-memory fakes.
package waitlist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/qnowapp/qnow-backend/internal/model"
	"github.com/qnowapp/qnow-backend/internal/repository"
)

// Validation and domain errors surfaced to the HTTP layer.
var (
	ErrNameRequired      = errors.New("queue name is required")
	ErrInvalidSize       = errors.New("max size must be greater than zero")
	ErrInvalidWait       = errors.New("estimated wait time must be greater than zero")
	ErrContactRequired   = errors.New("client name and phone are required")
	ErrQueueInactive     = errors.New("queue is not accepting joins")
	ErrQueueFull         = errors.New("queue is full")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrInvalidPosition   = errors.New("position must be greater than zero")
)

type queueStore interface {
	Create(ctx context.Context, q *model.Queue) error
	GetByID(ctx context.Context, id uint64) (*model.Queue, error)
	Update(ctx context.Context, id uint64, u model.QueueUpdate) (*model.Queue, error)
	Delete(ctx context.Context, id uint64) error
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Queue, error)
}

type clientStore interface {
	Create(ctx context.Context, c *model.QueueClient) error
	GetByID(ctx context.Context, id uint64) (*model.QueueClient, error)
	CountActive(ctx context.Context, queueID uint64) (int, error)
	MaxPosition(ctx context.Context, queueID uint64) (int, error)
	Update(ctx context.Context, id uint64, u model.ClientUpdate) (*model.QueueClient, error)
	Delete(ctx context.Context, id uint64) error
	ListByQueue(ctx context.Context, queueID uint64) ([]model.QueueClient, error)
}

// Service owns queues and their memberships.  Join requests for the
// same queue are serialized through a per-queue lock so that position
// assignment and the capacity check form a single-writer sequence.
type Service struct {
	queues  queueStore
	clients clientStore

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// New constructs a Service over the given stores.
func New(queues queueStore, clients clientStore) *Service {
	return &Service{
		queues:  queues,
		clients: clients,
		locks:   make(map[uint64]*sync.Mutex),
	}
}

// queueLock returns the mutex serializing joins for one queue.
func (s *Service) queueLock(queueID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[queueID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[queueID] = l
	}
	return l
}

// CreateQueueInput carries the caller-provided queue attributes.
// Zero-valued MaxSize and EstimatedWait fall back to the defaults;
// Active defaults to true unless explicitly provided.
type CreateQueueInput struct {
	Name          string
	Description   *string
	MaxSize       int
	EstimatedWait int
	Active        *bool
}

// CreateQueue creates a queue owned by ownerID.
func (s *Service) CreateQueue(ctx context.Context, ownerID uint64, in CreateQueueInput) (*model.Queue, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if in.MaxSize == 0 {
		in.MaxSize = model.DefaultMaxSize
	}
	if in.MaxSize < 0 {
		return nil, ErrInvalidSize
	}
	if in.EstimatedWait == 0 {
		in.EstimatedWait = model.DefaultEstimatedWait
	}
	if in.EstimatedWait < 0 {
		return nil, ErrInvalidWait
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	q := &model.Queue{
		BusinessOwnerID: ownerID,
		Name:            name,
		Description:     in.Description,
		MaxSize:         in.MaxSize,
		EstimatedWait:   in.EstimatedWait,
		IsActive:        active,
	}
	if err := s.queues.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQueue applies a partial update to a queue owned by ownerID.
// repository.ErrForbidden is returned when the queue belongs to a
// different account.
func (s *Service) UpdateQueue(ctx context.Context, ownerID, queueID uint64, u model.QueueUpdate) (*model.Queue, error) {
	cur, err := s.queues.GetByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if cur.BusinessOwnerID != ownerID {
		return nil, repository.ErrForbidden
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, ErrNameRequired
	}
	if u.MaxSize != nil && *u.MaxSize <= 0 {
		return nil, ErrInvalidSize
	}
	if u.EstimatedWait != nil && *u.EstimatedWait <= 0 {
		return nil, ErrInvalidWait
	}
	return s.queues.Update(ctx, queueID, u)
}

// DeleteQueue removes a queue owned by ownerID and returns its id.
// Existing memberships are left in place; positions in a recreated
// queue start over because ids are never reused.
func (s *Service) DeleteQueue(ctx context.Context, ownerID, queueID uint64) (uint64, error) {
	cur, err := s.queues.GetByID(ctx, queueID)
	if err != nil {
		return 0, err
	}
	if cur.BusinessOwnerID != ownerID {
		return 0, repository.ErrForbidden
	}
	if err := s.queues.Delete(ctx, queueID); err != nil {
		return 0, err
	}
	return queueID, nil
}

// GetQueue returns one queue by id.
func (s *Service) GetQueue(ctx context.Context, queueID uint64) (*model.Queue, error) {
	return s.queues.GetByID(ctx, queueID)
}

// ListQueues returns all queues owned by ownerID.
func (s *Service) ListQueues(ctx context.Context, ownerID uint64) ([]model.Queue, error) {
	return s.queues.ListByOwner(ctx, ownerID)
}

// JoinInput carries the details of a client joining a queue.  UserID is
// nil for anonymous walk-ins.
type JoinInput struct {
	QueueID uint64
	UserID  *uint64
	Name    string
	Phone   string
}

// Join adds a client to the end of the line.  The position is computed
// server-side as max assigned position + 1, which keeps positions
// unique among active members without renumbering after removals.
// Joins are rejected when the queue is missing, inactive, or already
// holds MaxSize active clients.
func (s *Service) Join(ctx context.Context, in JoinInput) (*model.QueueClient, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, ErrContactRequired
	}

	l := s.queueLock(in.QueueID)
	l.Lock()
	defer l.Unlock()

	q, err := s.queues.GetByID(ctx, in.QueueID)
	if err != nil {
		return nil, err
	}
	if !q.IsActive {
		return nil, ErrQueueInactive
	}
	active, err := s.clients.CountActive(ctx, in.QueueID)
	if err != nil {
		return nil, err
	}
	if active >= q.MaxSize {
		return nil, ErrQueueFull
	}
	maxPos, err := s.clients.MaxPosition(ctx, in.QueueID)
	if err != nil {
		return nil, err
	}
	c := &model.QueueClient{
		QueueID:  in.QueueID,
		UserID:   in.UserID,
		Name:     strings.TrimSpace(in.Name),
		Phone:    strings.TrimSpace(in.Phone),
		Position: maxPos + 1,
		Status:   model.StatusWaiting,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateClient applies a partial update to a membership.  Status
// changes are validated against the transition table; moving out of
// served or cancelled, or skipping backwards, yields
// ErrInvalidTransition.  Timestamps for notified/served are stamped
// automatically when the matching status is set without one.
func (s *Service) UpdateClient(ctx context.Context, clientID uint64, u model.ClientUpdate) (*model.QueueClient, error) {
	cur, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if u.Position != nil && *u.Position <= 0 {
		return nil, ErrInvalidPosition
	}
	if u.Status != nil && *u.Status != cur.Status {
		next := *u.Status
		if !next.Valid() || !cur.Status.CanTransitionTo(next) {
			return nil, ErrInvalidTransition
		}
		now := time.Now().UTC()
		if next == model.StatusNotified && u.NotifiedAt == nil {
			u.NotifiedAt = &now
		}
		if next == model.StatusServed && u.ServedAt == nil {
			u.ServedAt = &now
		}
	}
	return s.clients.Update(ctx, clientID, u)
}

// RemoveClient hard-deletes a membership and returns its id.
func (s *Service) RemoveClient(ctx context.Context, clientID uint64) (uint64, error) {
	if err := s.clients.Delete(ctx, clientID); err != nil {
		return 0, err
	}
	return clientID, nil
}

// GetClient returns one membership by id.
func (s *Service) GetClient(ctx context.Context, clientID uint64) (*model.QueueClient, error) {
	return s.clients.GetByID(ctx, clientID)
}

// ListClients returns the line of a queue owned by ownerID, ordered by
// position.  Staff-facing: enforces ownership.
func (s *Service) ListClients(ctx context.Context, ownerID, queueID uint64) ([]model.QueueClient, error) {
	q, err := s.queues.GetByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if q.BusinessOwnerID != ownerID {
		return nil, repository.ErrForbidden
	}
	return s.clients.ListByQueue(ctx, queueID)
}
