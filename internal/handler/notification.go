package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qnowapp/qnow-backend/internal/config"
	"github.com/qnowapp/qnow-backend/internal/repository"
	"github.com/qnowapp/qnow-backend/internal/service/dispatcher"
)

// NotificationHandler exposes the dispatch endpoints used by business
// staff to call clients up.
type NotificationHandler struct {
	Cfg        config.Config
	Dispatcher *dispatcher.Service
}

func NewNotificationHandler(cfg config.Config, d *dispatcher.Service) *NotificationHandler {
	return &NotificationHandler{Cfg: cfg, Dispatcher: d}
}

func (h *NotificationHandler) dispatchErr(c echo.Context, err error, op string) error {
	switch err {
	case repository.ErrClientNotFound:
		return fail(c, http.StatusNotFound, "queue client not found")
	case dispatcher.ErrTerminalStatus:
		return fail(c, http.StatusBadRequest, err.Error())
	case dispatcher.ErrStatusRequired:
		return fail(c, http.StatusBadRequest, err.Error())
	}
	return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, op+" failed", err)
}

// NotifyNext handles POST /api/notifications/next/:clientId. Marks the
// client notified and dispatches a "you're next" push. Calling it twice
// returns the first result with deduped=true instead of re-sending.
func (h *NotificationHandler) NotifyNext(c echo.Context) error {
	id, err := pathID(c, "clientId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid client id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Dispatcher.NotifyNext(ctx, id)
	if err != nil {
		return h.dispatchErr(c, err, "notify next")
	}
	msg := "client notified"
	if res.Deduped {
		msg = "client already notified"
	}
	return ok(c, msg, res)
}

// NotifyTurn handles POST /api/notifications/turn/:clientId. Dispatches
// an "it's your turn" push without touching the membership row.
func (h *NotificationHandler) NotifyTurn(c echo.Context) error {
	id, err := pathID(c, "clientId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid client id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Dispatcher.NotifyTurn(ctx, id)
	if err != nil {
		return h.dispatchErr(c, err, "notify turn")
	}
	return ok(c, "turn notification dispatched", res)
}

type queueStatusReq struct {
	Status string `json:"status"`
}

// QueueStatusChanged handles POST /api/notifications/queue-status/:queueId
// and fans a status announcement out to every waiting member.
func (h *NotificationHandler) QueueStatusChanged(c echo.Context) error {
	id, err := pathID(c, "queueId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid queue id")
	}
	var req queueStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		return fail(c, http.StatusBadRequest, "status is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	sent, err := h.Dispatcher.NotifyQueueStatusChange(ctx, id, req.Status)
	if err != nil {
		return h.dispatchErr(c, err, "queue status notify")
	}
	return ok(c, "queue status dispatched", map[string]any{"notifiedCount": sent})
}
