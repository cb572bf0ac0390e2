package observability

import (
	"fmt"
	"time"
)

// Metrics holds aggregates derived from the event log.
type Metrics struct {
	GoalsCreated        int            `json:"goals_created"`
	GoalsCompleted      int            `json:"goals_completed"`
	GoalsRemoved        int            `json:"goals_removed"`
	ProgressUpdates     int            `json:"progress_updates"`
	MilestonesAchieved  int            `json:"milestones_achieved"`
	GoalsByKind         map[string]int `json:"goals_by_kind"`
	ImportsFinished     int            `json:"imports_finished"`
	ExportsFinished     int            `json:"exports_finished"`
	BackupsCreated      int            `json:"backups_created"`
	WebhooksDelivered   int            `json:"webhooks_delivered"`
	EventCount          int            `json:"event_count"`
	OldestEvent         *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent         *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{GoalsByKind: make(map[string]int)}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventGoalCreated:
			m.GoalsCreated++
			if kind, ok := event.Data["kind"].(string); ok {
				m.GoalsByKind[kind]++
			}
		case EventGoalCompleted:
			m.GoalsCompleted++
		case EventGoalRemoved:
			m.GoalsRemoved++
		case EventGoalProgress:
			m.ProgressUpdates++
		case EventMilestoneAchieved:
			m.MilestonesAchieved++
		case EventImportFinished:
			m.ImportsFinished++
		case EventExportFinished:
			m.ExportsFinished++
		case EventBackupCreated:
			m.BackupsCreated++
		case EventWebhookDelivered:
			m.WebhooksDelivered++
		}
	}
	return m, nil
}
