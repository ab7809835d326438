// Package push is a thin HTTP client for the hosted push-notification
// gateway.  The gateway owns device registration and fan-out; this
// client only posts a single message per registered token.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the push gateway over its JSON API.
type Client struct {
	baseURL   string
	serverKey string
	client    *http.Client
}

// NewClient builds a Client for the given gateway base URL and server
// key.  The key goes out on every request in the Authorization header.
func NewClient(baseURL, serverKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		serverKey: serverKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type message struct {
	To           string            `json:"to"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendResponse mirrors the gateway's per-message result.
type SendResponse struct {
	Success int    `json:"success"`
	Failure int    `json:"failure"`
	Error   string `json:"error,omitempty"`
}

// SendToToken posts one push message to a device token.  Gateway data
// values must be strings, so callers convert before handing them in.
func (c *Client) SendToToken(ctx context.Context, token, title, body string, data map[string]string) error {
	if c.baseURL == "" {
		return fmt.Errorf("push gateway is not configured")
	}
	payload, err := json.Marshal(message{
		To:           token,
		Notification: notification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	var out SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode push response: %w", err)
	}
	if out.Failure > 0 {
		msg := out.Error
		if msg == "" {
			msg = "delivery rejected"
		}
		return fmt.Errorf("push gateway: %s", msg)
	}
	return nil
}
