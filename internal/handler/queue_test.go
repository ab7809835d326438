package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnowapp/qnow-backend/internal/config"
	"github.com/qnowapp/qnow-backend/internal/model"
	"github.com/qnowapp/qnow-backend/internal/repository"
	"github.com/qnowapp/qnow-backend/internal/service/waitlist"
)

// ----- minimal stores backing the waitlist service in handler tests -----

type stubQueues struct {
	next  uint64
	items map[uint64]model.Queue
}

func newStubQueues() *stubQueues { return &stubQueues{items: map[uint64]model.Queue{}} }

func (s *stubQueues) Create(_ context.Context, q *model.Queue) error {
	s.next++
	q.ID = s.next
	q.CreatedAt = time.Now().UTC()
	s.items[q.ID] = *q
	return nil
}
func (s *stubQueues) GetByID(_ context.Context, id uint64) (*model.Queue, error) {
	q, ok := s.items[id]
	if !ok {
		return nil, repository.ErrQueueNotFound
	}
	return &q, nil
}
func (s *stubQueues) Update(_ context.Context, id uint64, u model.QueueUpdate) (*model.Queue, error) {
	q, ok := s.items[id]
	if !ok {
		return nil, repository.ErrQueueNotFound
	}
	if u.Name != nil {
		q.Name = *u.Name
	}
	if u.MaxSize != nil {
		q.MaxSize = *u.MaxSize
	}
	if u.IsActive != nil {
		q.IsActive = *u.IsActive
	}
	s.items[id] = q
	return &q, nil
}
func (s *stubQueues) Delete(_ context.Context, id uint64) error {
	if _, ok := s.items[id]; !ok {
		return repository.ErrQueueNotFound
	}
	delete(s.items, id)
	return nil
}
func (s *stubQueues) ListByOwner(_ context.Context, ownerID uint64) ([]model.Queue, error) {
	var out []model.Queue
	for _, q := range s.items {
		if q.BusinessOwnerID == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

type stubClients struct {
	next  uint64
	items map[uint64]model.QueueClient
}

func newStubClients() *stubClients { return &stubClients{items: map[uint64]model.QueueClient{}} }

func (s *stubClients) Create(_ context.Context, c *model.QueueClient) error {
	s.next++
	c.ID = s.next
	c.JoinedAt = time.Now().UTC()
	s.items[c.ID] = *c
	return nil
}
func (s *stubClients) GetByID(_ context.Context, id uint64) (*model.QueueClient, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	return &c, nil
}
func (s *stubClients) CountActive(_ context.Context, queueID uint64) (int, error) {
	n := 0
	for _, c := range s.items {
		if c.QueueID == queueID && c.Active() {
			n++
		}
	}
	return n, nil
}
func (s *stubClients) MaxPosition(_ context.Context, queueID uint64) (int, error) {
	max := 0
	for _, c := range s.items {
		if c.QueueID == queueID && c.Position > max {
			max = c.Position
		}
	}
	return max, nil
}
func (s *stubClients) Update(_ context.Context, id uint64, u model.ClientUpdate) (*model.QueueClient, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	s.items[id] = c
	return &c, nil
}
func (s *stubClients) Delete(_ context.Context, id uint64) error {
	if _, ok := s.items[id]; !ok {
		return repository.ErrClientNotFound
	}
	delete(s.items, id)
	return nil
}
func (s *stubClients) ListByQueue(_ context.Context, queueID uint64) ([]model.QueueClient, error) {
	var out []model.QueueClient
	for _, c := range s.items {
		if c.QueueID == queueID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ----- helpers -----

func testQueueHandler() (*QueueHandler, *stubQueues, *stubClients) {
	q := newStubQueues()
	c := newStubClients()
	return NewQueueHandler(config.Config{Env: "test"}, waitlist.New(q, c)), q, c
}

func doJSON(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// ----- tests -----

func TestQueueCreateUnauthorized(t *testing.T) {
	h, _, _ := testQueueHandler()
	c, rec := doJSON(http.MethodPost, "/api/queues", `{"name":"x"}`)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestQueueCreateValidation(t *testing.T) {
	h, _, _ := testQueueHandler()
	c, rec := doJSON(http.MethodPost, "/api/queues", `{"name":"   "}`)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "name")
}

func TestQueueCreateOK(t *testing.T) {
	h, _, _ := testQueueHandler()
	c, rec := doJSON(http.MethodPost, "/api/queues", `{"name":"Front desk","max_size":5}`)
	c.Set("user_id", uint64(7))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var q model.Queue
	require.NoError(t, json.Unmarshal(raw, &q))
	assert.Equal(t, uint64(7), q.BusinessOwnerID)
	assert.Equal(t, "Front desk", q.Name)
	assert.Equal(t, 5, q.MaxSize)
	assert.Equal(t, model.DefaultEstimatedWait, q.EstimatedWait)
}

func TestQueueGetNotFound(t *testing.T) {
	h, _, _ := testQueueHandler()
	c, rec := doJSON(http.MethodGet, "/", "")
	c.SetPath("/api/queues/:id")
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueueUpdateForbidden(t *testing.T) {
	h, qs, _ := testQueueHandler()
	qs.items[1] = model.Queue{ID: 1, BusinessOwnerID: 5, Name: "Theirs", MaxSize: 10, IsActive: true}

	c, rec := doJSON(http.MethodPut, "/", `{"name":"Mine now"}`)
	c.Set("user_id", uint64(6))
	c.SetPath("/api/queues/:id")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJoinAssignsPosition(t *testing.T) {
	h, qs, _ := testQueueHandler()
	qs.items[1] = model.Queue{ID: 1, BusinessOwnerID: 5, Name: "Line", MaxSize: 10, IsActive: true}

	c, rec := doJSON(http.MethodPost, "/", `{"name":"Ana","phone":"555"}`)
	c.SetPath("/api/queues/:id/join")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Join(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var m model.QueueClient
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 1, m.Position)
	assert.Equal(t, model.StatusWaiting, m.Status)
	assert.Nil(t, m.UserID)
}

func TestJoinQueueFull(t *testing.T) {
	h, qs, cs := testQueueHandler()
	qs.items[1] = model.Queue{ID: 1, BusinessOwnerID: 5, Name: "Tiny", MaxSize: 1, IsActive: true}
	cs.items[1] = model.QueueClient{ID: 1, QueueID: 1, Position: 1, Status: model.StatusWaiting}
	cs.next = 1

	c, rec := doJSON(http.MethodPost, "/", `{"name":"Ben","phone":"556"}`)
	c.SetPath("/api/queues/:id/join")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Join(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Error, "full")
}

func TestJoinInactiveQueue(t *testing.T) {
	h, qs, _ := testQueueHandler()
	qs.items[1] = model.Queue{ID: 1, BusinessOwnerID: 5, Name: "Closed", MaxSize: 10, IsActive: false}

	c, rec := doJSON(http.MethodPost, "/", `{"name":"Ben","phone":"556"}`)
	c.SetPath("/api/queues/:id/join")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Join(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientUpdateIllegalTransition(t *testing.T) {
	q := newStubQueues()
	cs := newStubClients()
	h := NewQueueClientHandler(config.Config{Env: "test"}, waitlist.New(q, cs))
	cs.items[3] = model.QueueClient{ID: 3, QueueID: 1, Position: 1, Status: model.StatusServed}

	c, rec := doJSON(http.MethodPut, "/", `{"status":"waiting"}`)
	c.SetPath("/api/queue-clients/:id")
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Error, "transition")
}

func TestClientRemoveReturnsID(t *testing.T) {
	q := newStubQueues()
	cs := newStubClients()
	h := NewQueueClientHandler(config.Config{Env: "test"}, waitlist.New(q, cs))
	cs.items[3] = model.QueueClient{ID: 3, QueueID: 1, Position: 1, Status: model.StatusWaiting}

	c, rec := doJSON(http.MethodDelete, "/", "")
	c.SetPath("/api/queue-clients/:id")
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Remove(c))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, data["id"])
}
