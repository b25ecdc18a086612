package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"options-toolbox/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	if _, ok := NewFromConfig(nil).(NopNotifier); !ok {
		t.Error("nil config must yield the no-op notifier")
	}

	disabled := &config.NotificationConfig{Enabled: false}
	if _, ok := NewFromConfig(disabled).(NopNotifier); !ok {
		t.Error("disabled notifications must yield the no-op notifier")
	}

	noURL := &config.NotificationConfig{Enabled: true, Webhook: config.WebhookConfig{Enabled: true}}
	if _, ok := NewFromConfig(noURL).(NopNotifier); !ok {
		t.Error("an empty webhook URL must yield the no-op notifier")
	}

	enabled := &config.NotificationConfig{
		Enabled: true,
		Webhook: config.WebhookConfig{Enabled: true, URL: "https://hooks.example.com/x"},
	}
	if _, ok := NewFromConfig(enabled).(*WebhookNotifier); !ok {
		t.Error("expected a webhook notifier")
	}
}

func TestWebhookSend(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %s", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(config.WebhookConfig{URL: server.URL})
	err := n.Send(context.Background(), Notification{
		Type:    NotificationAlert,
		Title:   "RELIANCE profit target reached",
		Message: "Realized PnL ₹9,000.00",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	text := got["text"]
	if !strings.Contains(text, "RELIANCE profit target reached") || !strings.Contains(text, "alert") {
		t.Errorf("payload text = %q", text)
	}
}

func TestWebhookSendFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewWebhookNotifier(config.WebhookConfig{URL: server.URL})
	if err := n.Send(context.Background(), Notification{Title: "x"}); err == nil {
		t.Error("expected an error on a non-2xx response")
	}
}

func TestNopNotifier(t *testing.T) {
	if err := (NopNotifier{}).Send(context.Background(), Notification{}); err != nil {
		t.Errorf("no-op notifier returned %v", err)
	}
}
