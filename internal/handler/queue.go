package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qnowapp/qnow-backend/internal/config"
	"github.com/qnowapp/qnow-backend/internal/model"
	"github.com/qnowapp/qnow-backend/internal/repository"
	"github.com/qnowapp/qnow-backend/internal/service/waitlist"
)

// QueueHandler serves the queue CRUD and join endpoints on top of the
// waitlist service.
type QueueHandler struct {
	Cfg      config.Config
	Waitlist *waitlist.Service
}

func NewQueueHandler(cfg config.Config, w *waitlist.Service) *QueueHandler {
	return &QueueHandler{Cfg: cfg, Waitlist: w}
}

type createQueueReq struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	MaxSize       int     `json:"max_size"`
	EstimatedWait int     `json:"estimated_wait_time"`
	IsActive      *bool   `json:"is_active"`
}

type updateQueueReq struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	MaxSize       *int    `json:"max_size"`
	EstimatedWait *int    `json:"estimated_wait_time"`
	IsActive      *bool   `json:"is_active"`
}

// domainErr maps waitlist/repository errors to envelope responses.
// Shared by the queue and queue-client endpoints.
func domainErr(c echo.Context, prod bool, err error, op string) error {
	switch err {
	case waitlist.ErrNameRequired, waitlist.ErrInvalidSize, waitlist.ErrInvalidWait,
		waitlist.ErrContactRequired, waitlist.ErrQueueInactive, waitlist.ErrQueueFull,
		waitlist.ErrInvalidTransition, waitlist.ErrInvalidPosition:
		return fail(c, http.StatusBadRequest, err.Error())
	case repository.ErrQueueNotFound:
		return fail(c, http.StatusNotFound, "queue not found")
	case repository.ErrClientNotFound:
		return fail(c, http.StatusNotFound, "queue client not found")
	case repository.ErrForbidden:
		return fail(c, http.StatusForbidden, "not your queue")
	}
	return failWith(c, prod, http.StatusInternalServerError, op+" failed", err)
}

// Create handles POST /api/queues for the authenticated business owner.
func (h *QueueHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createQueueReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Waitlist.CreateQueue(ctx, ownerID, waitlist.CreateQueueInput{
		Name:          req.Name,
		Description:   req.Description,
		MaxSize:       req.MaxSize,
		EstimatedWait: req.EstimatedWait,
		Active:        req.IsActive,
	})
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "create queue")
	}
	return created(c, "queue created", q)
}

// Get handles GET /api/queues/:id. Public so customers can inspect a
// queue before joining.
func (h *QueueHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid queue id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Waitlist.GetQueue(ctx, id)
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "load queue")
	}
	return ok(c, "", q)
}

// List handles GET /api/queues and returns the owner's queues.
func (h *QueueHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Waitlist.ListQueues(ctx, ownerID)
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "list queues")
	}
	return ok(c, "", map[string]any{"items": items})
}

// Update handles PUT /api/queues/:id with a partial body.
func (h *QueueHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid queue id")
	}
	var req updateQueueReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Waitlist.UpdateQueue(ctx, ownerID, id, model.QueueUpdate{
		Name:          req.Name,
		Description:   req.Description,
		MaxSize:       req.MaxSize,
		EstimatedWait: req.EstimatedWait,
		IsActive:      req.IsActive,
	})
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "update queue")
	}
	return ok(c, "queue updated", q)
}

// Delete handles DELETE /api/queues/:id. Memberships are left in place;
// they reference a queue that no longer exists.
func (h *QueueHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid queue id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Waitlist.DeleteQueue(ctx, ownerID, id)
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "delete queue")
	}
	return ok(c, "queue deleted", map[string]any{"id": deleted})
}

// ListClients handles GET /api/queues/:id/clients, the staff view of
// the line ordered by position.
func (h *QueueHandler) ListClients(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid queue id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Waitlist.ListClients(ctx, ownerID, id)
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "list clients")
	}
	return ok(c, "", map[string]any{"items": items})
}

type joinReq struct {
	UserID *uint64 `json:"user_id"`
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
}

// Join handles POST /api/queues/:id/join. Open to customers and
// anonymous walk-ins; the server assigns the position.
func (h *QueueHandler) Join(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid queue id")
	}
	var req joinReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	// When an authenticated customer joins, prefer the JWT identity
	// over a caller-supplied user_id.
	if uid, err := getUserID(c); err == nil {
		req.UserID = &uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Waitlist.Join(ctx, waitlist.JoinInput{
		QueueID: id,
		UserID:  req.UserID,
		Name:    req.Name,
		Phone:   req.Phone,
	})
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "join queue")
	}
	return created(c, "joined queue", m)
}
