// Package dispatcher turns queue events into outbound notifications.
// It loads a membership joined with queue and contact data, records the
// dispatch attempt on the membership, and hands the message to the
// broker for delivery.  Duplicate sends are short-circuited on the
// membership's notified marker.
package dispatcher

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qnowapp/qnow-backend/internal/model"
	"github.com/qnowapp/qnow-backend/internal/queue"
	"github.com/qnowapp/qnow-backend/internal/repository"
)

// Dispatch errors surfaced to the HTTP layer.
var (
	// ErrTerminalStatus is returned when a notify operation targets a
	// membership that was already served or cancelled.
	ErrTerminalStatus = errors.New("client already served or cancelled")
	// ErrStatusRequired is returned when a queue status change carries
	// no status value.
	ErrStatusRequired = errors.New("status is required")
)

type clientStore interface {
	GetDetail(ctx context.Context, id uint64) (*repository.ClientDetail, error)
	Update(ctx context.Context, id uint64, u model.ClientUpdate) (*model.QueueClient, error)
	ListWaitingDetails(ctx context.Context, queueID uint64) ([]repository.ClientDetail, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event queue.NotificationEvent) error
}

// Service coordinates notification dispatch.
type Service struct {
	clients   clientStore
	publisher eventPublisher
}

// New constructs a dispatcher Service.
func New(clients clientStore, publisher eventPublisher) *Service {
	return &Service{clients: clients, publisher: publisher}
}

// Result is the outcome of a single dispatch.  The membership marker is
// written before transport, so Delivered can be false while the client
// is already marked notified; DeliveryError carries the transport
// failure in that case.  Deduped means a previous dispatch already
// went out and nothing was sent this time.
type Result struct {
	ClientID      uint64  `json:"client_id"`
	QueueID       uint64  `json:"queue_id"`
	QueueName     string  `json:"queue_name"`
	Position      int     `json:"position"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	UserID        *uint64 `json:"user_id,omitempty"`
	Deduped       bool    `json:"deduped"`
	Delivered     bool    `json:"delivered"`
	DeliveryError string  `json:"delivery_error,omitempty"`
}

func resultFrom(d *repository.ClientDetail) *Result {
	r := &Result{
		ClientID:  d.Client.ID,
		QueueID:   d.Client.QueueID,
		QueueName: d.QueueName,
		Position:  d.Client.Position,
		Name:      d.Client.Name,
		Phone:     d.Client.Phone,
		UserID:    d.Client.UserID,
	}
	if d.UserPhone != nil && *d.UserPhone != "" {
		r.Phone = *d.UserPhone
	}
	return r
}

func eventFrom(d *repository.ClientDetail, kind string) queue.NotificationEvent {
	return queue.NotificationEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		ClientID:  d.Client.ID,
		QueueID:   d.Client.QueueID,
		QueueName: d.QueueName,
		Name:      d.Client.Name,
		Phone:     d.Client.Phone,
		UserID:    d.Client.UserID,
		FCMToken:  d.FCMToken,
		Position:  d.Client.Position,
		SentAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

// NotifyNext tells a client they are next in line.  The membership is
// marked notified before the message leaves, so a transport failure
// still counts as an attempt (at-least-once); the failure is recorded
// on the result instead of rolling the marker back.  Calling it again
// without a status reset returns a deduped result and sends nothing.
func (s *Service) NotifyNext(ctx context.Context, clientID uint64) (*Result, error) {
	d, err := s.clients.GetDetail(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if d.Client.Status.Terminal() {
		return nil, ErrTerminalStatus
	}

	res := resultFrom(d)
	if d.Client.Status == model.StatusNotified && d.Client.NotifiedAt != nil {
		res.Deduped = true
		return res, nil
	}

	// Phase one: record the attempt.
	now := time.Now().UTC()
	status := model.StatusNotified
	if _, err := s.clients.Update(ctx, clientID, model.ClientUpdate{
		Status:     &status,
		NotifiedAt: &now,
	}); err != nil {
		return nil, err
	}

	// Phase two: hand off to transport.
	if err := s.publisher.Publish(ctx, eventFrom(d, queue.KindNext)); err != nil {
		log.Printf("dispatcher: notify next client=%d publish failed: %v", clientID, err)
		res.DeliveryError = err.Error()
		return res, nil
	}
	res.Delivered = true
	return res, nil
}

// NotifyTurn tells a client it is their turn.  Unlike NotifyNext it
// does not touch the membership record; the subsequent served update
// is the staff action that advances the status machine.
func (s *Service) NotifyTurn(ctx context.Context, clientID uint64) (*Result, error) {
	d, err := s.clients.GetDetail(ctx, clientID)
	if err != nil {
		return nil, err
	}
	res := resultFrom(d)
	if err := s.publisher.Publish(ctx, eventFrom(d, queue.KindTurn)); err != nil {
		log.Printf("dispatcher: notify turn client=%d publish failed: %v", clientID, err)
		res.DeliveryError = err.Error()
		return res, nil
	}
	res.Delivered = true
	return res, nil
}

// NotifyQueueStatusChange fans a queue status announcement out to every
// waiting client.  Failures are isolated per recipient: one bad
// publish is logged and skipped, the rest of the line is still
// notified.  Returns the number of successful dispatches.  Members
// already notified are excluded by the waiting filter, which keeps the
// fan-out from double-sending on retry.
func (s *Service) NotifyQueueStatusChange(ctx context.Context, queueID uint64, status string) (int, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return 0, ErrStatusRequired
	}
	details, err := s.clients.ListWaitingDetails(ctx, queueID)
	if err != nil {
		return 0, err
	}
	notified := 0
	for i := range details {
		ev := eventFrom(&details[i], queue.KindQueueStatus)
		ev.QueueStatus = status
		if err := s.publisher.Publish(ctx, ev); err != nil {
			log.Printf("dispatcher: queue status change queue=%d client=%d publish failed: %v",
				queueID, details[i].Client.ID, err)
			continue
		}
		notified++
	}
	return notified, nil
}
