package cli

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/goaltrack/internal/observability"
)

type alertEngineMock struct {
	alerts []observability.Alert
	err    error
}

func (m *alertEngineMock) Evaluate() ([]observability.Alert, error) {
	return m.alerts, m.err
}

type notifierMock struct {
	notified []observability.Alert
	err      error
}

func (m *notifierMock) Notify(alerts []observability.Alert) error {
	m.notified = alerts
	return m.err
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()
	AlertEngine = nil

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err == nil {
		t.Fatal("expected error when AlertEngine is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_EvaluateError(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()
	AlertEngine = &alertEngineMock{err: fmt.Errorf("store unreadable")}

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err == nil {
		t.Fatal("expected evaluation error to propagate")
	}
	if !strings.Contains(err.Error(), "store unreadable") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_NoAlerts(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()
	AlertEngine = &alertEngineMock{}

	if err := alertsCmd.RunE(alertsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_NotifyPushesAlerts(t *testing.T) {
	origEngine := AlertEngine
	origNotifier := Notifier
	origNotify := alertsNotify
	defer func() {
		AlertEngine = origEngine
		Notifier = origNotifier
		alertsNotify = origNotify
	}()

	alerts := []observability.Alert{
		{ID: "stale-g1", Condition: "stale_goal", Severity: observability.SeverityMedium, Message: "no progress", TriggeredAt: time.Now().UTC()},
	}
	AlertEngine = &alertEngineMock{alerts: alerts}
	n := &notifierMock{}
	Notifier = n
	alertsNotify = true

	if err := alertsCmd.RunE(alertsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.notified) != 1 || n.notified[0].ID != "stale-g1" {
		t.Errorf("notified = %+v, want the triggered alert", n.notified)
	}
}

func TestAlertsCmd_NotifyWithoutNotifier(t *testing.T) {
	origEngine := AlertEngine
	origNotifier := Notifier
	origNotify := alertsNotify
	defer func() {
		AlertEngine = origEngine
		Notifier = origNotifier
		alertsNotify = origNotify
	}()

	AlertEngine = &alertEngineMock{alerts: []observability.Alert{
		{ID: "a", Severity: observability.SeverityLow, TriggeredAt: time.Now().UTC()},
	}}
	Notifier = nil
	alertsNotify = true

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err == nil {
		t.Fatal("expected error when Notifier is nil")
	}
	if !strings.Contains(err.Error(), "notifier not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}
