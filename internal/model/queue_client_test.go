package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientStatusValid(t *testing.T) {
	for _, s := range []ClientStatus{StatusWaiting, StatusNotified, StatusServed, StatusCancelled} {
		assert.True(t, s.Valid(), "status %s", s)
	}
	assert.False(t, ClientStatus("").Valid())
	assert.False(t, ClientStatus("done").Valid())
}

func TestClientStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ClientStatus
		legal    bool
	}{
		{StatusWaiting, StatusNotified, true},
		{StatusWaiting, StatusServed, true},
		{StatusWaiting, StatusCancelled, true},
		{StatusNotified, StatusServed, true},
		{StatusNotified, StatusCancelled, true},
		{StatusNotified, StatusWaiting, false},
		{StatusServed, StatusWaiting, false},
		{StatusServed, StatusNotified, false},
		{StatusServed, StatusCancelled, false},
		{StatusCancelled, StatusWaiting, false},
		{StatusCancelled, StatusServed, false},
		{StatusWaiting, StatusWaiting, false}, // no-op is not a transition
	}
	for _, tc := range cases {
		assert.Equal(t, tc.legal, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestClientStatusTerminal(t *testing.T) {
	assert.False(t, StatusWaiting.Terminal())
	assert.False(t, StatusNotified.Terminal())
	assert.True(t, StatusServed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestQueueClientActive(t *testing.T) {
	c := QueueClient{Status: StatusWaiting}
	assert.True(t, c.Active())
	c.Status = StatusNotified
	assert.True(t, c.Active())
	c.Status = StatusServed
	assert.False(t, c.Active())
	c.Status = StatusCancelled
	assert.False(t, c.Active())
}

func TestNotificationSent(t *testing.T) {
	n := Notification{}
	assert.False(t, n.Sent())

	n.Data = map[string]any{"delivery_status": DeliveryFailed}
	assert.False(t, n.Sent())

	n.Data["push_sent_at"] = time.Now().UTC().Format(time.RFC3339)
	assert.True(t, n.Sent())
}
