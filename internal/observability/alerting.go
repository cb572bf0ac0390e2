package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	StaleDays       int `yaml:"stale_days" json:"stale_days"`
	DeadlineDays    int `yaml:"deadline_days" json:"deadline_days"`
	MaxGoalsPerUser int `yaml:"max_goals_per_user" json:"max_goals_per_user"`
	CeilingHeadroom int `yaml:"ceiling_headroom" json:"ceiling_headroom"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		StaleDays:       7,
		DeadlineDays:    3,
		MaxGoalsPerUser: 50,
		CeilingHeadroom: 5,
	}
}

// GoalSource supplies the stored goal records that alert conditions are
// evaluated against. Defined here so the engine does not import storage.
type GoalSource interface {
	LoadAll() (map[string][]models.GoalRecord, error)
}

// AlertEngine evaluates alert conditions against the stored goals.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	goals      GoalSource
	thresholds AlertThresholds
}

// NewAlertEngine creates an AlertEngine over the given goal source.
func NewAlertEngine(goals GoalSource, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{goals: goals, thresholds: thresholds}
}

// Evaluate checks all alert conditions and returns any triggered alerts:
// active goals without recent progress, deadlines close or passed, and users
// approaching the goal ceiling.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	all, err := ae.goals.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading goals for alert evaluation: %w", err)
	}

	now := time.Now().UTC()
	var alerts []Alert

	for user, records := range all {
		alerts = append(alerts, ae.checkStaleGoals(now, user, records)...)
		alerts = append(alerts, ae.checkDeadlines(now, user, records)...)
		alerts = append(alerts, ae.checkCeiling(now, user, records)...)
	}
	return alerts, nil
}

// checkStaleGoals flags active goals whose last accepted progress update (or
// creation, if never updated) is older than the stale threshold.
func (ae *alertEngine) checkStaleGoals(now time.Time, user string, records []models.GoalRecord) []Alert {
	cutoff := now.AddDate(0, 0, -ae.thresholds.StaleDays)
	var alerts []Alert
	for _, rec := range records {
		if rec.Status != models.StatusActive {
			continue
		}
		last := lastActivity(rec)
		if last.IsZero() || !last.Before(cutoff) {
			continue
		}
		days := int(now.Sub(last).Hours() / 24)
		alerts = append(alerts, Alert{
			ID:          fmt.Sprintf("stale-%s", rec.ID),
			Condition:   "stale_goal",
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("goal %q (%s) has had no progress for %d days", rec.Title, user, days),
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkDeadlines flags goals whose deadline has passed or falls within the
// warning window, unless already completed.
func (ae *alertEngine) checkDeadlines(now time.Time, user string, records []models.GoalRecord) []Alert {
	window := now.AddDate(0, 0, ae.thresholds.DeadlineDays)
	var alerts []Alert
	for _, rec := range records {
		if rec.Status == models.StatusCompleted || rec.Deadline == nil {
			continue
		}
		deadline, err := time.Parse(time.RFC3339, *rec.Deadline)
		if err != nil {
			continue
		}
		switch {
		case deadline.Before(now):
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("deadline-passed-%s", rec.ID),
				Condition:   "deadline_passed",
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("goal %q (%s) missed its deadline %s", rec.Title, user, deadline.Format("2006-01-02")),
				TriggeredAt: now,
			})
		case deadline.Before(window):
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("deadline-near-%s", rec.ID),
				Condition:   "deadline_approaching",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("goal %q (%s) is due %s", rec.Title, user, deadline.Format("2006-01-02")),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

// checkCeiling warns when a user's goal count is within the configured
// headroom of the per-user maximum.
func (ae *alertEngine) checkCeiling(now time.Time, user string, records []models.GoalRecord) []Alert {
	limit := ae.thresholds.MaxGoalsPerUser
	if limit <= 0 || len(records) < limit-ae.thresholds.CeilingHeadroom {
		return nil
	}
	return []Alert{{
		ID:          fmt.Sprintf("ceiling-%s", user),
		Condition:   "goal_ceiling",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("user %s has %d of %d allowed goals", user, len(records), limit),
		TriggeredAt: now,
	}}
}

// lastActivity returns the timestamp of the record's newest history entry,
// falling back to its creation date.
func lastActivity(rec models.GoalRecord) time.Time {
	if n := len(rec.History); n > 0 {
		if t, err := time.Parse(time.RFC3339, rec.History[n-1].Date); err == nil {
			return t
		}
	}
	if t, err := time.Parse(time.RFC3339, rec.CreatedDate); err == nil {
		return t
	}
	return time.Time{}
}
