// Package core contains the business logic for goaltrack,
// including the goal entity and its variants, the per-user goal registry,
// input validation, and configuration management.
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// Errors returned by goal operations. Callers branch on these with errors.Is.
var (
	ErrEmptyTitle        = errors.New("goal title must not be empty")
	ErrNonPositiveTarget = errors.New("target value must be greater than 0")
	ErrNegativeProgress  = errors.New("progress value must not be negative")
	ErrWrongKind         = errors.New("operation not supported for this goal kind")
)

// ProgressChange is a single accepted change to a goal's current value.
type ProgressChange struct {
	Date     time.Time
	OldValue float64
	NewValue float64
}

// Milestone is a named percentage threshold on a business goal.
type Milestone struct {
	Label         string
	TargetPercent float64
}

// PersonalDetails carries the personal-goal variant payload.
type PersonalDetails struct {
	PriorityLabel string
	IsHabit       bool

	notes []string
}

// BusinessDetails carries the business-goal variant payload.
type BusinessDetails struct {
	Department string
	Budget     float64

	stakeholders []string
	milestones   []Milestone
}

// Goal is a trackable objective with a numeric target and current value.
// The Kind tag selects the variant payload; exactly one of Personal or
// Business is set for the non-general kinds. Mutation goes through
// UpdateProgress, which is the only operation that appends to the history.
type Goal struct {
	ID           string
	Title        string
	Description  string
	TargetValue  float64
	CurrentValue float64
	Status       models.GoalStatus
	Kind         models.GoalKind
	Created      time.Time
	Deadline     *time.Time

	Personal *PersonalDetails
	Business *BusinessDetails

	history []ProgressChange

	// lastUpdate tracks the most recent accepted progress update for the
	// registry's cooldown check. Zero means never updated.
	lastUpdate time.Time
}

// MotivationEmptySummary is returned by MotivationSummary when no notes exist.
const MotivationEmptySummary = "No motivation notes yet."

// newGoalID generates a short opaque goal identifier. Uniqueness is only
// required within a single user's goal list.
func newGoalID() string {
	return uuid.NewString()[:8]
}

// NewGoal creates a general goal. The title must be non-blank and the target
// strictly positive; both are hard preconditions, not soft validation.
func NewGoal(title, description string, targetValue float64) (*Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if targetValue <= 0 {
		return nil, ErrNonPositiveTarget
	}

	return &Goal{
		ID:          newGoalID(),
		Title:       title,
		Description: strings.TrimSpace(description),
		TargetValue: targetValue,
		Status:      models.StatusActive,
		Kind:        models.KindGeneral,
		Created:     time.Now(),
	}, nil
}

// NewPersonalGoal creates a personal goal carrying a priority label and a
// recurring-habit flag.
func NewPersonalGoal(title, description string, targetValue float64, priorityLabel string, isHabit bool) (*Goal, error) {
	g, err := NewGoal(title, description, targetValue)
	if err != nil {
		return nil, err
	}
	g.Kind = models.KindPersonal
	g.Personal = &PersonalDetails{
		PriorityLabel: priorityLabel,
		IsHabit:       isHabit,
	}
	return g, nil
}

// NewBusinessGoal creates a business goal carrying a department label and a
// budget figure.
func NewBusinessGoal(title, description string, targetValue float64, department string, budget float64) (*Goal, error) {
	g, err := NewGoal(title, description, targetValue)
	if err != nil {
		return nil, err
	}
	g.Kind = models.KindBusiness
	g.Business = &BusinessDetails{
		Department: department,
		Budget:     budget,
	}
	return g, nil
}

// UpdateProgress sets the current value and appends a history record.
// Negative values are rejected without mutating the goal. Reaching the target
// flips the status to completed; the transition is one-way and idempotent, so
// further updates never revert a completed goal to active.
func (g *Goal) UpdateProgress(newValue float64) error {
	if newValue < 0 {
		return ErrNegativeProgress
	}

	old := g.CurrentValue
	g.CurrentValue = newValue
	g.history = append(g.history, ProgressChange{
		Date:     time.Now(),
		OldValue: old,
		NewValue: newValue,
	})
	g.lastUpdate = time.Now()

	if g.CurrentValue >= g.TargetValue {
		g.Status = models.StatusCompleted
	}
	return nil
}

// ProgressPercentage returns the completion percentage, capped at 100.
// A zero target cannot occur through the constructors; it is still handled
// to keep the function total.
func (g *Goal) ProgressPercentage() float64 {
	if g.TargetValue == 0 {
		return 0
	}
	pct := g.CurrentValue / g.TargetValue * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// History returns a copy of the progress history. The internal list is never
// exposed, so callers cannot mutate it through the accessor.
func (g *Goal) History() []ProgressChange {
	out := make([]ProgressChange, len(g.history))
	copy(out, g.history)
	return out
}

// LastUpdate returns the time of the most recent accepted progress update,
// or the zero time if progress was never updated.
func (g *Goal) LastUpdate() time.Time {
	return g.lastUpdate
}

// ProgressInfo renders a one-line progress summary for display.
func (g *Goal) ProgressInfo() string {
	return fmt.Sprintf("%s: %g/%g (%.1f%%)", g.Title, g.CurrentValue, g.TargetValue, g.ProgressPercentage())
}

// --- Personal variant ---

// AddMotivationNote stores a free-text note on a personal goal.
// Blank or whitespace-only notes are silently ignored.
func (g *Goal) AddMotivationNote(text string) error {
	if g.Personal == nil {
		return fmt.Errorf("adding motivation note to %s goal: %w", g.Kind, ErrWrongKind)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	g.Personal.notes = append(g.Personal.notes, text)
	return nil
}

// MotivationSummary joins all stored notes, or returns a fixed sentinel when
// none exist.
func (g *Goal) MotivationSummary() (string, error) {
	if g.Personal == nil {
		return "", fmt.Errorf("motivation summary for %s goal: %w", g.Kind, ErrWrongKind)
	}
	if len(g.Personal.notes) == 0 {
		return MotivationEmptySummary, nil
	}
	return strings.Join(g.Personal.notes, " | "), nil
}

// MotivationNotes returns a copy of the stored notes.
func (g *Goal) MotivationNotes() []string {
	if g.Personal == nil {
		return nil
	}
	out := make([]string, len(g.Personal.notes))
	copy(out, g.Personal.notes)
	return out
}

// --- Business variant ---

// AddStakeholder records a stakeholder name on a business goal.
// Names are kept unique; re-adding an existing name is a no-op.
func (g *Goal) AddStakeholder(name string) error {
	if g.Business == nil {
		return fmt.Errorf("adding stakeholder to %s goal: %w", g.Kind, ErrWrongKind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, existing := range g.Business.stakeholders {
		if existing == name {
			return nil
		}
	}
	g.Business.stakeholders = append(g.Business.stakeholders, name)
	return nil
}

// Stakeholders returns a copy of the stakeholder names in insertion order.
func (g *Goal) Stakeholders() []string {
	if g.Business == nil {
		return nil
	}
	out := make([]string, len(g.Business.stakeholders))
	copy(out, g.Business.stakeholders)
	return out
}

// AddMilestone registers a named percentage threshold on a business goal.
// The target percent must be within [0, 100]. Labels are unique; registering
// an existing label replaces its threshold.
func (g *Goal) AddMilestone(label string, targetPercent float64) error {
	if g.Business == nil {
		return fmt.Errorf("adding milestone to %s goal: %w", g.Kind, ErrWrongKind)
	}
	if targetPercent < 0 || targetPercent > 100 {
		return fmt.Errorf("milestone %q: target percent %g out of range [0, 100]", label, targetPercent)
	}
	for i, m := range g.Business.milestones {
		if m.Label == label {
			g.Business.milestones[i].TargetPercent = targetPercent
			return nil
		}
	}
	g.Business.milestones = append(g.Business.milestones, Milestone{Label: label, TargetPercent: targetPercent})
	return nil
}

// Milestones returns a copy of the registered milestones.
func (g *Goal) Milestones() []Milestone {
	if g.Business == nil {
		return nil
	}
	out := make([]Milestone, len(g.Business.milestones))
	copy(out, g.Business.milestones)
	return out
}

// AchievedMilestones returns the labels of milestones whose threshold is at
// or below the current progress percentage. The result is computed fresh on
// every call; label uniqueness guarantees no milestone is reported twice.
func (g *Goal) AchievedMilestones() []string {
	if g.Business == nil {
		return nil
	}
	pct := g.ProgressPercentage()
	var achieved []string
	for _, m := range g.Business.milestones {
		if m.TargetPercent <= pct {
			achieved = append(achieved, m.Label)
		}
	}
	return achieved
}
