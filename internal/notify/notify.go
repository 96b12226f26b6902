package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FACorreiaa/go-messagely/config"
)

const defaultTimeout = 5 * time.Second

// Notifier delivers an out-of-band alert that a user has a new message.
// Delivery is best effort; failures never abort message creation.
type Notifier interface {
	Notify(ctx context.Context, fromUsername, recipientPhone string) error
}

// WebhookNotifier posts new-message alerts to a configured endpoint, e.g. an
// SMS gateway bridge.
type WebhookNotifier struct {
	logger *slog.Logger
	client *http.Client
	url    string
}

func NewWebhookNotifier(cfg config.NotifyConfig, logger *slog.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WebhookNotifier{
		logger: logger,
		client: &http.Client{Timeout: timeout},
		url:    cfg.WebhookURL,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, fromUsername, recipientPhone string) error {
	payload, err := json.Marshal(map[string]string{
		"to":   recipientPhone,
		"text": fmt.Sprintf("messagely: you have a new message from %s", fromUsername),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification endpoint answered %d", resp.StatusCode)
	}

	n.logger.DebugContext(ctx, "Notification delivered", slog.String("to", recipientPhone))
	return nil
}

// NopNotifier drops every notification. Used when no webhook is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, fromUsername, recipientPhone string) error {
	return nil
}
