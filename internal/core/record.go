package core

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// ToRecord converts the goal to its wire representation. Every field has a
// known, total conversion, so the projection cannot fail.
func (g *Goal) ToRecord() models.GoalRecord {
	rec := models.GoalRecord{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		TargetValue:  g.TargetValue,
		CurrentValue: g.CurrentValue,
		GoalType:     g.Kind,
		Status:       g.Status,
		CreatedDate:  g.Created.Format(time.RFC3339),
		History:      make([]models.HistoryRecord, 0, len(g.history)),
	}
	if g.Deadline != nil {
		d := g.Deadline.Format(time.RFC3339)
		rec.Deadline = &d
	}
	for _, h := range g.history {
		rec.History = append(rec.History, models.HistoryRecord{
			Date:     h.Date.Format(time.RFC3339),
			OldValue: h.OldValue,
			NewValue: h.NewValue,
		})
	}

	if g.Personal != nil {
		rec.PriorityLabel = g.Personal.PriorityLabel
		rec.IsHabit = g.Personal.IsHabit
		rec.MotivationNotes = append([]string(nil), g.Personal.notes...)
	}
	if g.Business != nil {
		rec.Department = g.Business.Department
		rec.Budget = g.Business.Budget
		rec.Stakeholders = append([]string(nil), g.Business.stakeholders...)
		for _, m := range g.Business.milestones {
			rec.Milestones = append(rec.Milestones, models.MilestoneRecord{
				Label:         m.Label,
				TargetPercent: m.TargetPercent,
			})
		}
	}
	return rec
}

// GoalFromRecord reconstructs a goal entity from its wire representation.
// The constructor preconditions still apply: a record with a blank title or
// non-positive target is rejected. Unparseable dates inside the record are
// tolerated (the original's load path treated them as absent), but the
// record's identity and values are restored exactly.
func GoalFromRecord(rec models.GoalRecord) (*Goal, error) {
	var (
		g   *Goal
		err error
	)
	switch rec.GoalType {
	case models.KindPersonal:
		g, err = NewPersonalGoal(rec.Title, rec.Description, rec.TargetValue, rec.PriorityLabel, rec.IsHabit)
	case models.KindBusiness:
		g, err = NewBusinessGoal(rec.Title, rec.Description, rec.TargetValue, rec.Department, rec.Budget)
	default:
		g, err = NewGoal(rec.Title, rec.Description, rec.TargetValue)
	}
	if err != nil {
		return nil, fmt.Errorf("restoring goal %q: %w", rec.ID, err)
	}

	if rec.ID != "" {
		g.ID = rec.ID
	}
	g.CurrentValue = rec.CurrentValue
	if rec.Status != "" {
		g.Status = rec.Status
	}
	if t, perr := parseWireTime(rec.CreatedDate); perr == nil {
		g.Created = t
	}
	if rec.Deadline != nil {
		if t, perr := parseWireTime(*rec.Deadline); perr == nil {
			g.Deadline = &t
		}
	}

	for _, h := range rec.History {
		change := ProgressChange{OldValue: h.OldValue, NewValue: h.NewValue}
		if t, perr := parseWireTime(h.Date); perr == nil {
			change.Date = t
		}
		g.history = append(g.history, change)
	}
	if n := len(g.history); n > 0 {
		g.lastUpdate = g.history[n-1].Date
	}

	if g.Personal != nil {
		g.Personal.notes = append([]string(nil), rec.MotivationNotes...)
	}
	if g.Business != nil {
		g.Business.stakeholders = append([]string(nil), rec.Stakeholders...)
		for _, m := range rec.Milestones {
			g.Business.milestones = append(g.Business.milestones, Milestone{
				Label:         m.Label,
				TargetPercent: m.TargetPercent,
			})
		}
	}
	return g, nil
}

// parseWireTime parses an RFC 3339 timestamp, falling back to the date-only
// form found in hand-edited files.
func parseWireTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
