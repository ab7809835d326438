package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the health-check endpoint used by load balancers and
// monitoring systems. It returns a plain "ok" with HTTP 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// APIIndex answers the API root so clients can probe for liveness and
// discover the mounted route groups.
func APIIndex(c echo.Context) error {
	return ok(c, "QNow API", map[string]any{
		"routes": []string{"/api/auth", "/api/queues", "/api/queue-clients", "/api/notifications", "/api/webhooks"},
	})
}
