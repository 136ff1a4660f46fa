package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// LogTransport writes pushes to the structured log. It is used when no
// webhook is configured.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, recipientID uuid.UUID, message string) error {
	slog.Info("notification", "recipient", recipientID, "message", message)
	return nil
}

// WebhookTransport POSTs each push as JSON to a fixed URL.
type WebhookTransport struct {
	url    string
	client *http.Client
}

func NewWebhookTransport(url string, timeout time.Duration) *WebhookTransport {
	return &WebhookTransport{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

func (t *WebhookTransport) Send(ctx context.Context, recipientID uuid.UUID, message string) error {
	body, err := json.Marshal(webhookPayload{
		Recipient: recipientID.String(),
		Message:   message,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %s", resp.Status)
	}

	return nil
}
