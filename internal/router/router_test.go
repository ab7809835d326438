package router

import (
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/qnowapp/qnow-backend/internal/handler"
)

func TestRegisterMountsAccountRoutes(t *testing.T) {
	e := echo.New()
	Register(e, Handlers{
		Auth:         &handler.AuthHandler{},
		Queues:       &handler.QueueHandler{},
		QueueClients: &handler.QueueClientHandler{},
		Notify:       &handler.NotificationHandler{},
		Webhooks:     &handler.WebhookHandler{},
	}, "secret", nil)

	mounted := map[string]bool{}
	for _, r := range e.Routes() {
		mounted[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/auth/profile",
		"PUT /api/auth/profile",
		"DELETE /api/auth/profile",
		"PUT /api/auth/fcm-token",
		"POST /api/queues/:id/join",
		"POST /api/notifications/next/:clientId",
		"POST /api/webhooks/notification-created",
	} {
		assert.True(t, mounted[want], "route not mounted: %s", want)
	}
}
