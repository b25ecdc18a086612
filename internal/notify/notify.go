// Package notify provides the alerting channel for the toolbox.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"options-toolbox/internal/config"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationAlert  NotificationType = "alert"
	NotificationReport NotificationType = "report"
	NotificationError  NotificationType = "error"
)

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Timestamp time.Time
}

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NewFromConfig builds a notifier from configuration. Notifications off
// means a no-op notifier, so callers never branch.
func NewFromConfig(cfg *config.NotificationConfig) Notifier {
	if cfg == nil || !cfg.Enabled || !cfg.Webhook.Enabled || cfg.Webhook.URL == "" {
		return NopNotifier{}
	}
	return NewWebhookNotifier(cfg.Webhook)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

// Send implements Notifier.
func (NopNotifier) Send(context.Context, Notification) error { return nil }

// WebhookNotifier posts notifications to a Slack-compatible incoming
// webhook. Message formatting beyond the plain text payload belongs to the
// receiving side.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the notification.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	payload, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("[%s] %s\n%s", n.Type, n.Title, n.Message),
	})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
