package handler

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qnowapp/qnow-backend/internal/config"
	"github.com/qnowapp/qnow-backend/internal/model"
	"github.com/qnowapp/qnow-backend/internal/queue"
	"github.com/qnowapp/qnow-backend/internal/repository"
)

// WebhookHandler relays database notification inserts to the push
// gateway. The database fires a webhook after each insert into the
// notifications table; this endpoint looks up the recipient's device
// token, sends the push and writes delivery markers back on the row.
type WebhookHandler struct {
	Cfg           config.Config
	Notifications *repository.NotificationRepo
	Users         *repository.UserRepo
	Push          queue.PushSender
}

func NewWebhookHandler(cfg config.Config, n *repository.NotificationRepo, u *repository.UserRepo, p queue.PushSender) *WebhookHandler {
	return &WebhookHandler{Cfg: cfg, Notifications: n, Users: u, Push: p}
}

// Ping handles GET /api/webhooks/ping so the webhook source can verify
// connectivity.
func (h *WebhookHandler) Ping(c echo.Context) error {
	return ok(c, "webhook endpoint reachable", nil)
}

// authorized checks the shared bearer secret in constant time.
func (h *WebhookHandler) authorized(c echo.Context) bool {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	got := strings.TrimPrefix(header, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.Cfg.WebhookSecret)) == 1
}

type webhookPayload struct {
	Type   string `json:"type"`
	Record struct {
		ID uint64 `json:"id"`
	} `json:"record"`
}

// NotificationCreated handles POST /api/webhooks/notification-created.
// Dedupes on the push_sent_at marker so webhook retries do not produce
// duplicate pushes.
func (h *WebhookHandler) NotificationCreated(c echo.Context) error {
	if !h.authorized(c) {
		return fail(c, http.StatusUnauthorized, "invalid webhook secret")
	}
	var payload webhookPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if payload.Type != "INSERT" {
		return ok(c, "ignored: not an insert", nil)
	}
	if payload.Record.ID == 0 {
		return fail(c, http.StatusBadRequest, "record.id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	n, err := h.Notifications.GetByID(ctx, payload.Record.ID)
	if err != nil {
		if err == repository.ErrNotificationNotFound {
			return fail(c, http.StatusNotFound, "notification not found")
		}
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "load notification failed", err)
	}
	if n.Sent() {
		return ok(c, "already delivered", map[string]any{"id": n.ID, "deduped": true})
	}

	u, err := h.Users.GetByID(ctx, n.UserID)
	if err != nil && err != repository.ErrUserNotFound {
		return failWith(c, h.Cfg.Prod(), http.StatusInternalServerError, "load user failed", err)
	}
	if err == repository.ErrUserNotFound || u.FCMToken == nil || *u.FCMToken == "" {
		h.mark(ctx, n, map[string]any{
			"delivery_status": model.DeliveryFailed,
			"delivery_error":  "no device token registered",
			"failed_at":       time.Now().UTC().Format(time.RFC3339),
		})
		return ok(c, "skipped: no device token", map[string]any{"id": n.ID, "delivered": false})
	}

	if err := h.Push.SendToToken(ctx, *u.FCMToken, n.Title, n.Message, stringify(n.Data)); err != nil {
		c.Logger().Errorf("push for notification %d: %v", n.ID, err)
		h.mark(ctx, n, map[string]any{
			"delivery_status": model.DeliveryFailed,
			"delivery_error":  err.Error(),
			"failed_at":       time.Now().UTC().Format(time.RFC3339),
		})
		return ok(c, "push failed", map[string]any{"id": n.ID, "delivered": false})
	}

	h.mark(ctx, n, map[string]any{
		"delivery_status": model.DeliverySent,
		"push_sent_at":    time.Now().UTC().Format(time.RFC3339),
	})
	return ok(c, "push delivered", map[string]any{"id": n.ID, "delivered": true})
}

// mark merges delivery markers into the notification's data payload.
// Marker writes are best effort: a failure is logged, not surfaced.
func (h *WebhookHandler) mark(ctx context.Context, n *model.Notification, markers map[string]any) {
	data := map[string]any{}
	for k, v := range n.Data {
		data[k] = v
	}
	for k, v := range markers {
		data[k] = v
	}
	if err := h.Notifications.SetData(ctx, n.ID, data); err != nil {
		// Row may have been deleted between read and write.
		log.Printf("marker write for notification %d: %v", n.ID, err)
	}
}

// stringify flattens a JSON data payload into the string map the push
// gateway accepts.
func stringify(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
