// Package exchange handles the system's outward-facing data paths: JSON/CSV
// import, JSON/CSV/XML export with filtering, and the webhook registry with
// its pluggable delivery port.
package exchange

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/goaltrack/internal/core"
)

// ErrInvalidWebhook is returned when a registration is missing required fields.
var ErrInvalidWebhook = errors.New("webhook requires an event type and a callback URL")

// Deliverer is the delivery port for webhook payloads. The default
// implementation only logs the payload; an HTTP implementation can be
// swapped in without touching the registry.
type Deliverer interface {
	Deliver(url string, payload []byte, headers map[string]string) error
}

// Webhook is one registered endpoint.
type Webhook struct {
	ID            string     `json:"id"`
	Event         string     `json:"event_type"`
	URL           string     `json:"callback_url"`
	Active        bool       `json:"is_active"`
	Created       time.Time  `json:"created_at"`
	RequestCount  int        `json:"request_count"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`

	secret string
}

// WebhookRegistry holds registered webhooks and dispatches events to them.
// All state is instance-local; nothing here is process-global.
type WebhookRegistry struct {
	hooks     []*Webhook
	deliverer Deliverer
	events    core.EventRecorder
}

// NewWebhookRegistry creates a registry delivering through the given port.
// A nil deliverer falls back to the logging stub; events may be nil.
func NewWebhookRegistry(deliverer Deliverer, events core.EventRecorder) *WebhookRegistry {
	if deliverer == nil {
		deliverer = NewLogDeliverer(nil)
	}
	return &WebhookRegistry{deliverer: deliverer, events: events}
}

// Register adds a webhook for the given event type and returns its ID.
// The secret is optional; when present, payloads are signed with it.
func (r *WebhookRegistry) Register(event, url, secret string) (string, error) {
	if strings.TrimSpace(event) == "" || strings.TrimSpace(url) == "" {
		return "", ErrInvalidWebhook
	}
	hook := &Webhook{
		ID:      uuid.NewString()[:16],
		Event:   event,
		URL:     url,
		Active:  true,
		Created: time.Now(),
		secret:  secret,
	}
	r.hooks = append(r.hooks, hook)
	return hook.ID, nil
}

// Hooks returns a copy of the registered webhooks.
func (r *WebhookRegistry) Hooks() []Webhook {
	out := make([]Webhook, 0, len(r.hooks))
	for _, h := range r.hooks {
		out = append(out, *h)
	}
	return out
}

// Deactivate marks the webhook with the given ID inactive.
func (r *WebhookRegistry) Deactivate(id string) error {
	for _, h := range r.hooks {
		if h.ID == id {
			h.Active = false
			return nil
		}
	}
	return fmt.Errorf("webhook %s not found", id)
}

// Trigger dispatches the event to every active webhook registered for it and
// returns the number of successful deliveries. Individual delivery failures
// do not abort the remaining hooks.
func (r *WebhookRegistry) Trigger(event string, payload map[string]any) (int, error) {
	envelope := map[string]any{
		"event_type": event,
		"event_data": payload,
		"timestamp":  time.Now().Format(time.RFC3339),
	}

	delivered := 0
	var firstErr error
	for _, hook := range r.hooks {
		if !hook.Active || hook.Event != event {
			continue
		}
		envelope["webhook_id"] = hook.ID
		body, err := json.Marshal(envelope)
		if err != nil {
			return delivered, fmt.Errorf("encoding webhook payload: %w", err)
		}

		headers := map[string]string{"Content-Type": "application/json"}
		if hook.secret != "" {
			headers["X-Signature"] = signPayload(body, hook.secret)
		}

		if err := r.deliverer.Deliver(hook.URL, body, headers); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("delivering to %s: %w", hook.URL, err)
			}
			continue
		}
		hook.RequestCount++
		now := time.Now()
		hook.LastTriggered = &now
		delivered++
		if r.events != nil {
			r.events.Record("webhook.delivered",
				fmt.Sprintf("delivered %s to %s", event, hook.URL),
				map[string]any{"webhook_id": hook.ID, "event_type": event})
		}
	}
	if delivered == 0 && firstErr != nil {
		return 0, firstErr
	}
	return delivered, nil
}

// signPayload computes an HMAC-SHA256 signature over the payload.
func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// logDeliverer is the default stub: it writes the payload to the given
// writer instead of performing a network call.
type logDeliverer struct {
	out io.Writer
}

// NewLogDeliverer creates the logging stub deliverer. A nil writer discards
// the output.
func NewLogDeliverer(out io.Writer) Deliverer {
	if out == nil {
		out = io.Discard
	}
	return &logDeliverer{out: out}
}

func (d *logDeliverer) Deliver(url string, payload []byte, _ map[string]string) error {
	_, err := fmt.Fprintf(d.out, "webhook -> %s\n%s\n", url, payload)
	return err
}

// httpDeliverer posts payloads over HTTP.
type httpDeliverer struct {
	client *http.Client
}

// NewHTTPDeliverer creates a Deliverer that performs real HTTP POSTs.
func NewHTTPDeliverer(client *http.Client) Deliverer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &httpDeliverer{client: client}
}

func (d *httpDeliverer) Deliver(url string, payload []byte, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
