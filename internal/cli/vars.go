package cli

import (
	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/internal/exchange"
	"github.com/valter-silva-au/goaltrack/internal/observability"
	"github.com/valter-silva-au/goaltrack/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath    string
	DefaultUser string

	Registry  core.GoalRegistry
	ConfigMgr core.ConfigurationManager

	Store         storage.GoalStore
	ProgressStore storage.ProgressStore

	Webhooks *exchange.WebhookRegistry

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)

// Events is the registry-facing event recorder, set in app.go. It is nil
// when the event log could not be opened.
var Events core.EventRecorder

// resolveUser returns the explicit user when given, otherwise the
// configured default.
func resolveUser(flag string) string {
	if flag != "" {
		return flag
	}
	if DefaultUser != "" {
		return DefaultUser
	}
	return "default"
}
