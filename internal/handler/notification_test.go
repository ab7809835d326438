package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnowapp/qnow-backend/internal/config"
	"github.com/qnowapp/qnow-backend/internal/model"
	"github.com/qnowapp/qnow-backend/internal/queue"
	"github.com/qnowapp/qnow-backend/internal/repository"
	"github.com/qnowapp/qnow-backend/internal/service/dispatcher"
)

type stubDetailStore struct {
	details map[uint64]*repository.ClientDetail
}

func (s *stubDetailStore) GetDetail(_ context.Context, id uint64) (*repository.ClientDetail, error) {
	d, ok := s.details[id]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	return d, nil
}

func (s *stubDetailStore) Update(_ context.Context, id uint64, u model.ClientUpdate) (*model.QueueClient, error) {
	d, ok := s.details[id]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	if u.Status != nil {
		d.Client.Status = *u.Status
	}
	if u.NotifiedAt != nil {
		d.Client.NotifiedAt = u.NotifiedAt
	}
	return &d.Client, nil
}

func (s *stubDetailStore) ListWaitingDetails(_ context.Context, queueID uint64) ([]repository.ClientDetail, error) {
	var out []repository.ClientDetail
	for _, d := range s.details {
		if d.Client.QueueID == queueID && d.Client.Status == model.StatusWaiting {
			out = append(out, *d)
		}
	}
	return out, nil
}

type nopPublisher struct{ published int }

func (p *nopPublisher) Publish(context.Context, queue.NotificationEvent) error {
	p.published++
	return nil
}

func testNotificationHandler(details ...*repository.ClientDetail) (*NotificationHandler, *nopPublisher) {
	store := &stubDetailStore{details: map[uint64]*repository.ClientDetail{}}
	for _, d := range details {
		store.details[d.Client.ID] = d
	}
	pub := &nopPublisher{}
	return NewNotificationHandler(config.Config{Env: "test"}, dispatcher.New(store, pub)), pub
}

func clientDetail(id uint64, status model.ClientStatus) *repository.ClientDetail {
	return &repository.ClientDetail{
		Client: model.QueueClient{
			ID: id, QueueID: 10, Name: "Ana", Phone: "555", Position: 1, Status: status,
		},
		QueueName: "Front desk",
	}
}

func TestNotifyNextOK(t *testing.T) {
	h, pub := testNotificationHandler(clientDetail(1, model.StatusWaiting))

	c, rec := doJSON(http.MethodPost, "/", "")
	c.SetPath("/api/notifications/next/:clientId")
	c.SetParamNames("clientId")
	c.SetParamValues("1")

	require.NoError(t, h.NotifyNext(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, pub.published)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["deduped"])
	assert.Equal(t, true, data["delivered"])
}

func TestNotifyNextUnknownClient(t *testing.T) {
	h, _ := testNotificationHandler()

	c, rec := doJSON(http.MethodPost, "/", "")
	c.SetPath("/api/notifications/next/:clientId")
	c.SetParamNames("clientId")
	c.SetParamValues("99")

	require.NoError(t, h.NotifyNext(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifyNextTerminalClient(t *testing.T) {
	h, pub := testNotificationHandler(clientDetail(1, model.StatusServed))

	c, rec := doJSON(http.MethodPost, "/", "")
	c.SetPath("/api/notifications/next/:clientId")
	c.SetParamNames("clientId")
	c.SetParamValues("1")

	require.NoError(t, h.NotifyNext(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, pub.published)
}

func TestNotifyNextBadID(t *testing.T) {
	h, _ := testNotificationHandler()

	c, rec := doJSON(http.MethodPost, "/", "")
	c.SetPath("/api/notifications/next/:clientId")
	c.SetParamNames("clientId")
	c.SetParamValues("abc")

	require.NoError(t, h.NotifyNext(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotifyTurnOK(t *testing.T) {
	h, pub := testNotificationHandler(clientDetail(1, model.StatusNotified))

	c, rec := doJSON(http.MethodPost, "/", "")
	c.SetPath("/api/notifications/turn/:clientId")
	c.SetParamNames("clientId")
	c.SetParamValues("1")

	require.NoError(t, h.NotifyTurn(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, pub.published)
}

func TestQueueStatusChangedRequiresStatus(t *testing.T) {
	h, pub := testNotificationHandler()

	c, rec := doJSON(http.MethodPost, "/", `{"status":"  "}`)
	c.SetPath("/api/notifications/queue-status/:queueId")
	c.SetParamNames("queueId")
	c.SetParamValues("10")

	require.NoError(t, h.QueueStatusChanged(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, pub.published)
}

func TestQueueStatusChangedCountsWaiting(t *testing.T) {
	h, pub := testNotificationHandler(
		clientDetail(1, model.StatusWaiting),
		clientDetail(2, model.StatusWaiting),
		clientDetail(3, model.StatusNotified),
	)

	c, rec := doJSON(http.MethodPost, "/", `{"status":"paused"}`)
	c.SetPath("/api/notifications/queue-status/:queueId")
	c.SetParamNames("queueId")
	c.SetParamValues("10")

	require.NoError(t, h.QueueStatusChanged(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, pub.published)

	env := decodeEnvelope(t, rec)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, data["notifiedCount"])
}
