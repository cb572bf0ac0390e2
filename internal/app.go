// Package internal provides the App struct that wires all components of the
// goaltrack system together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/goaltrack/internal/cli"
	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/internal/exchange"
	"github.com/valter-silva-au/goaltrack/internal/observability"
	"github.com/valter-silva-au/goaltrack/internal/storage"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// App holds all service dependencies for the goaltrack system.
type App struct {
	BasePath string
	Config   *models.GlobalConfig

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	Store         storage.GoalStore
	ProgressStore storage.ProgressStore

	// Core services
	Registry core.GoalRegistry

	// Exchange
	Webhooks *exchange.WebhookRegistry

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of the goaltrack system. basePath
// is the root directory holding the config file, the event log, and the data
// directory.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		// A broken config file falls back to defaults rather than blocking
		// every command.
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		cfg = core.DefaultGlobalConfig()
	}
	app.Config = cfg

	// --- Storage layer ---
	logf := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	dataDir := cfg.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(basePath, dataDir)
	}
	app.Store, err = storage.NewGoalStore(dataDir, cfg.BackupRetention, logf)
	if err != nil {
		return nil, fmt.Errorf("initializing goal store: %w", err)
	}
	app.ProgressStore, err = storage.NewProgressStore(app.Store)
	if err != nil {
		return nil, fmt.Errorf("initializing progress store: %w", err)
	}

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".goaltrack_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}
	var events core.EventRecorder
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	thresholds := observability.DefaultAlertThresholds()
	if cfg.Alerts.StaleDays > 0 {
		thresholds.StaleDays = cfg.Alerts.StaleDays
	}
	if cfg.Alerts.DeadlineDays > 0 {
		thresholds.DeadlineDays = cfg.Alerts.DeadlineDays
	}
	if cfg.Alerts.CeilingHeadroom > 0 {
		thresholds.CeilingHeadroom = cfg.Alerts.CeilingHeadroom
	}
	if cfg.MaxGoalsPerUser > 0 {
		thresholds.MaxGoalsPerUser = cfg.MaxGoalsPerUser
	}
	app.AlertEngine = observability.NewAlertEngine(app.Store, thresholds)

	// --- Exchange ---
	app.Webhooks = exchange.NewWebhookRegistry(exchange.NewHTTPDeliverer(nil), events)
	for _, wh := range cfg.Webhooks {
		if _, werr := app.Webhooks.Register(wh.Event, wh.URL, wh.Secret); werr != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping webhook for %s: %v\n", wh.Event, werr)
		}
	}
	app.Notifier = observability.NewWebhookNotifier(app.Webhooks)

	// --- Core services ---
	app.Registry = core.NewGoalRegistry(app.Store, events, core.RegistryOptions{
		MaxGoalsPerUser:  cfg.MaxGoalsPerUser,
		ProgressCooldown: time.Duration(cfg.ProgressCooldownMins) * time.Minute,
	})

	// Preload every user found on disk so lookups and alerts see the full
	// picture without an explicit load step.
	if all, lerr := app.Store.LoadAll(); lerr == nil {
		for user := range all {
			if _, rerr := app.Registry.LoadFromStore(user); rerr != nil {
				fmt.Fprintf(os.Stderr, "Warning: loading goals for %s: %v\n", user, rerr)
			}
		}
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.DefaultUser = cfg.DefaultUser
	cli.Registry = app.Registry
	cli.ConfigMgr = app.ConfigMgr
	cli.Store = app.Store
	cli.ProgressStore = app.ProgressStore
	cli.Webhooks = app.Webhooks
	cli.Events = events

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the goaltrack data directory.
// It checks the GOALTRACK_HOME env var, then walks up from the current
// directory looking for a .goaltrack.yaml, and falls back to the cwd.
func ResolveBasePath() string {
	if home := os.Getenv("GOALTRACK_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".goaltrack.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventRecorder.
// Recording is best-effort, so write errors are dropped.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) Record(eventType, message string, data map[string]any) {
	_ = a.log.Write(observability.Event{
		Level:   "INFO",
		Type:    eventType,
		Message: message,
		Data:    data,
	})
}
