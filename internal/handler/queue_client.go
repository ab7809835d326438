package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qnowapp/qnow-backend/internal/config"
	"github.com/qnowapp/qnow-backend/internal/model"
	"github.com/qnowapp/qnow-backend/internal/service/waitlist"
)

// QueueClientHandler serves membership CRUD for business staff.
type QueueClientHandler struct {
	Cfg      config.Config
	Waitlist *waitlist.Service
}

func NewQueueClientHandler(cfg config.Config, w *waitlist.Service) *QueueClientHandler {
	return &QueueClientHandler{Cfg: cfg, Waitlist: w}
}

type createClientReq struct {
	QueueID uint64  `json:"queue_id"`
	UserID  *uint64 `json:"user_id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	// Position is accepted for wire compatibility but ignored: the
	// server always assigns the next position itself.
	Position *int `json:"position"`
}

// Create handles POST /api/queue-clients. Staff-side add; goes through
// the same join path as the public endpoint so capacity and position
// rules hold.
func (h *QueueClientHandler) Create(c echo.Context) error {
	var req createClientReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.QueueID == 0 {
		return fail(c, http.StatusBadRequest, "queue_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Waitlist.Join(ctx, waitlist.JoinInput{
		QueueID: req.QueueID,
		UserID:  req.UserID,
		Name:    req.Name,
		Phone:   req.Phone,
	})
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "create client")
	}
	return created(c, "client added", m)
}

// Get handles GET /api/queue-clients/:id.
func (h *QueueClientHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid client id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Waitlist.GetClient(ctx, id)
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "load client")
	}
	return ok(c, "", m)
}

type updateClientReq struct {
	Status     *model.ClientStatus `json:"status"`
	Position   *int                `json:"position"`
	NotifiedAt *time.Time          `json:"notified_at"`
	ServedAt   *time.Time          `json:"served_at"`
}

// Update handles PUT /api/queue-clients/:id with a partial body.
// Illegal status transitions come back as 400.
func (h *QueueClientHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid client id")
	}
	var req updateClientReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Waitlist.UpdateClient(ctx, id, model.ClientUpdate{
		Status:     req.Status,
		Position:   req.Position,
		NotifiedAt: req.NotifiedAt,
		ServedAt:   req.ServedAt,
	})
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "update client")
	}
	return ok(c, "client updated", m)
}

// Remove handles DELETE /api/queue-clients/:id. Positions of the
// remaining members are not renumbered.
func (h *QueueClientHandler) Remove(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid client id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	removed, err := h.Waitlist.RemoveClient(ctx, id)
	if err != nil {
		return domainErr(c, h.Cfg.Prod(), err, "remove client")
	}
	return ok(c, "client removed", map[string]any{"id": removed})
}
