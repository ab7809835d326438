package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnowapp/qnow-backend/internal/config"
)

func testWebhookHandler() *WebhookHandler {
	return &WebhookHandler{Cfg: config.Config{Env: "test", WebhookSecret: "s3cret"}}
}

func TestWebhookRejectsMissingSecret(t *testing.T) {
	h := testWebhookHandler()

	c, rec := doJSON(http.MethodPost, "/api/webhooks/notification-created", `{"type":"INSERT","record":{"id":1}}`)
	require.NoError(t, h.NotificationCreated(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	h := testWebhookHandler()

	c, rec := doJSON(http.MethodPost, "/api/webhooks/notification-created", `{"type":"INSERT","record":{"id":1}}`)
	c.Request().Header.Set("Authorization", "Bearer wrong")
	require.NoError(t, h.NotificationCreated(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookIgnoresNonInsert(t *testing.T) {
	h := testWebhookHandler()

	c, rec := doJSON(http.MethodPost, "/api/webhooks/notification-created", `{"type":"UPDATE","record":{"id":1}}`)
	c.Request().Header.Set("Authorization", "Bearer s3cret")
	require.NoError(t, h.NotificationCreated(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Contains(t, env.Message, "ignored")
}

func TestWebhookRequiresRecordID(t *testing.T) {
	h := testWebhookHandler()

	c, rec := doJSON(http.MethodPost, "/api/webhooks/notification-created", `{"type":"INSERT","record":{}}`)
	c.Request().Header.Set("Authorization", "Bearer s3cret")
	require.NoError(t, h.NotificationCreated(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookPing(t *testing.T) {
	h := testWebhookHandler()

	c, rec := doJSON(http.MethodGet, "/api/webhooks/ping", "")
	require.NoError(t, h.Ping(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStringifyKeepsOnlyStrings(t *testing.T) {
	out := stringify(map[string]any{
		"queue_id": float64(3),
		"kind":     "next",
		"nested":   map[string]any{"x": 1},
	})
	assert.Equal(t, map[string]string{"kind": "next"}, out)
	assert.Nil(t, stringify(nil))
}
