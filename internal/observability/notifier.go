package observability

import (
	"fmt"
	"time"
)

// Notifier sends alert notifications to an external channel.
type Notifier interface {
	Notify(alerts []Alert) error
}

// AlertPublisher is the slice of the webhook registry the notifier needs:
// trigger an event with a payload, get back the delivered count.
type AlertPublisher interface {
	Trigger(event string, payload map[string]any) (int, error)
}

// webhookNotifier pushes alert batches through the webhook registry under
// the "alerts.triggered" event.
type webhookNotifier struct {
	publisher AlertPublisher
}

// NewWebhookNotifier creates a Notifier delivering through the given publisher.
func NewWebhookNotifier(publisher AlertPublisher) Notifier {
	return &webhookNotifier{publisher: publisher}
}

// Notify publishes the alerts as a single webhook payload. It does nothing
// when the alert slice is empty.
func (n *webhookNotifier) Notify(alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	items := make([]map[string]any, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, map[string]any{
			"id":           a.ID,
			"condition":    a.Condition,
			"severity":     string(a.Severity),
			"message":      a.Message,
			"triggered_at": a.TriggeredAt.Format(time.RFC3339),
		})
	}

	delivered, err := n.publisher.Trigger("alerts.triggered", map[string]any{
		"count":  len(alerts),
		"alerts": items,
	})
	if err != nil {
		return fmt.Errorf("publishing alerts: %w", err)
	}
	if delivered == 0 {
		return fmt.Errorf("publishing alerts: no webhook accepted the event")
	}
	return nil
}
