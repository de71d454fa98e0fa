package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/sedentary/internal/events"
)

// WebhookDispatcher posts alerts to an HTTP push gateway.
type WebhookDispatcher struct {
	client *http.Client
	url    string
	token  string
	userID string
}

// NewWebhookDispatcher constructs a WebhookDispatcher.
func NewWebhookDispatcher(endpoint, token, userID string, timeout time.Duration) *WebhookDispatcher {
	return &WebhookDispatcher{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(endpoint, "/"),
		token:  token,
		userID: userID,
	}
}

// Deliver posts the alert as JSON. Any non-2xx response is a DeliveryError.
func (w *WebhookDispatcher) Deliver(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(events.AlertRaised{
		AlertID: uuid.NewString(),
		UserID:  w.userID,
		Title:   title,
		Body:    body,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		recordDelivery("webhook", err)
		return &DeliveryError{Sink: "webhook", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		recordDelivery("webhook", err)
		return &DeliveryError{Sink: "webhook", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		recordDelivery("webhook", err)
		return &DeliveryError{Sink: "webhook", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		derr := &DeliveryError{Sink: "webhook", Status: resp.StatusCode}
		recordDelivery("webhook", derr)
		return derr
	}
	recordDelivery("webhook", nil)
	return nil
}
