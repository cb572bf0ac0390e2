package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// Defaults for registry limits. Both are overridable through configuration.
const (
	DefaultMaxGoalsPerUser  = 50
	DefaultProgressCooldown = time.Hour
)

// Errors returned by registry operations.
var (
	ErrEmptyUser        = errors.New("username must not be empty")
	ErrGoalNotFound     = errors.New("goal not found")
	ErrUserLimitReached = errors.New("goal limit reached for user")
	ErrCooldownActive   = errors.New("progress was updated too recently")
)

// GoalStore is the subset of storage.GoalStore that the registry needs.
// Defining it here keeps core independent of the storage package.
type GoalStore interface {
	SaveGoals(user string, records []models.GoalRecord) error
	LoadGoals(user string) ([]models.GoalRecord, error)
	SaveBackup(data models.BackupFile, filename string) error
}

// EventRecorder receives structured events from registry operations.
// Recording is best-effort; implementations must not fail the operation.
type EventRecorder interface {
	Record(eventType, message string, data map[string]any)
}

// ProgressResult reports the outcome of an accepted progress update,
// including milestones that became achieved by this update.
type ProgressResult struct {
	GoalID        string
	OldValue      float64
	NewValue      float64
	Percentage    float64
	Completed     bool
	NewMilestones []string
}

// GoalRegistry manages each user's goal list and enforces the per-user
// ceiling and the progress cooldown.
type GoalRegistry interface {
	AddGoal(user string, g *Goal) error
	UserGoals(user string) []*Goal
	GoalCount(user string) int
	GetGoal(user, goalID string) (*Goal, error)
	UpdateGoalProgress(user, goalID string, newValue float64, note string) (*ProgressResult, error)
	RemoveGoal(user, goalID string) error
	SetGoalStatus(user, goalID string, status models.GoalStatus) error
	GoalsByKind(user string, kind models.GoalKind) []*Goal
	GoalsByStatus(user string, status models.GoalStatus) []*Goal
	SearchGoals(user, term string) []*Goal
	LoadFromStore(user string) (int, error)
	Backup() (string, error)
	Persist(user string) error
	Users() []string
}

// RegistryOptions tunes registry behaviour. Zero values fall back to the
// package defaults.
type RegistryOptions struct {
	MaxGoalsPerUser  int
	ProgressCooldown time.Duration
}

type goalRegistry struct {
	goals    map[string][]*Goal
	store    GoalStore
	events   EventRecorder
	maxGoals int
	cooldown time.Duration
}

// NewGoalRegistry creates a registry. store and events may be nil, in which
// case persistence and event recording are skipped.
func NewGoalRegistry(store GoalStore, events EventRecorder, opts RegistryOptions) GoalRegistry {
	maxGoals := opts.MaxGoalsPerUser
	if maxGoals <= 0 {
		maxGoals = DefaultMaxGoalsPerUser
	}
	cooldown := opts.ProgressCooldown
	if cooldown <= 0 {
		cooldown = DefaultProgressCooldown
	}
	return &goalRegistry{
		goals:    make(map[string][]*Goal),
		store:    store,
		events:   events,
		maxGoals: maxGoals,
		cooldown: cooldown,
	}
}

func (r *goalRegistry) record(eventType, message string, data map[string]any) {
	if r.events != nil {
		r.events.Record(eventType, message, data)
	}
}

// AddGoal validates the goal's record projection and appends it to the
// user's list. On success the user's full list is re-persisted; a persistence
// failure is reported through the event log but does not roll back the add.
func (r *goalRegistry) AddGoal(user string, g *Goal) error {
	if strings.TrimSpace(user) == "" {
		return ErrEmptyUser
	}
	if len(r.goals[user]) >= r.maxGoals {
		return fmt.Errorf("adding goal for %s: %w (max %d)", user, ErrUserLimitReached, r.maxGoals)
	}

	if errs := ValidateGoalData(g.ToRecord()); len(errs) > 0 {
		return fmt.Errorf("adding goal: invalid goal data: %s", strings.Join(errs, "; "))
	}

	r.goals[user] = append(r.goals[user], g)
	r.record("goal.created", fmt.Sprintf("goal %q created", g.Title), map[string]any{
		"user": user, "goal_id": g.ID, "kind": string(g.Kind), "target": g.TargetValue,
	})

	if err := r.Persist(user); err != nil {
		r.record("store.save_failed", fmt.Sprintf("persisting goals for %s: %s", user, err), map[string]any{
			"user": user,
		})
	}
	return nil
}

// UserGoals returns a copy of the user's goal list in insertion order.
func (r *goalRegistry) UserGoals(user string) []*Goal {
	goals := r.goals[user]
	out := make([]*Goal, len(goals))
	copy(out, goals)
	return out
}

func (r *goalRegistry) GoalCount(user string) int {
	return len(r.goals[user])
}

func (r *goalRegistry) GetGoal(user, goalID string) (*Goal, error) {
	for _, g := range r.goals[user] {
		if g.ID == goalID {
			return g, nil
		}
	}
	return nil, fmt.Errorf("goal %s for user %s: %w", goalID, user, ErrGoalNotFound)
}

// UpdateGoalProgress locates the goal, enforces the per-goal cooldown, and
// delegates to the goal's own UpdateProgress. For business goals the result
// carries the milestones newly achieved by this update.
func (r *goalRegistry) UpdateGoalProgress(user, goalID string, newValue float64, note string) (*ProgressResult, error) {
	g, err := r.GetGoal(user, goalID)
	if err != nil {
		return nil, err
	}

	if last := g.LastUpdate(); !last.IsZero() {
		if elapsed := time.Since(last); elapsed < r.cooldown {
			return nil, fmt.Errorf("updating goal %s: %w (retry in %s)",
				goalID, ErrCooldownActive, (r.cooldown - elapsed).Round(time.Minute))
		}
	}

	achievedBefore := toSet(g.AchievedMilestones())
	old := g.CurrentValue
	wasCompleted := g.Status == models.StatusCompleted

	if err := g.UpdateProgress(newValue); err != nil {
		return nil, fmt.Errorf("updating goal %s: %w", goalID, err)
	}

	result := &ProgressResult{
		GoalID:     goalID,
		OldValue:   old,
		NewValue:   newValue,
		Percentage: g.ProgressPercentage(),
		Completed:  g.Status == models.StatusCompleted,
	}
	for _, label := range g.AchievedMilestones() {
		if !achievedBefore[label] {
			result.NewMilestones = append(result.NewMilestones, label)
		}
	}

	data := map[string]any{
		"user": user, "goal_id": goalID,
		"old_value": old, "new_value": newValue,
	}
	if note != "" {
		data["note"] = note
	}
	r.record("goal.progress_updated", fmt.Sprintf("progress %g -> %g", old, newValue), data)
	if result.Completed && !wasCompleted {
		r.record("goal.completed", fmt.Sprintf("goal %q completed", g.Title), map[string]any{
			"user": user, "goal_id": goalID,
		})
	}
	for _, label := range result.NewMilestones {
		r.record("goal.milestone_achieved", fmt.Sprintf("milestone %q achieved", label), map[string]any{
			"user": user, "goal_id": goalID, "milestone": label,
		})
	}

	if err := r.Persist(user); err != nil {
		r.record("store.save_failed", fmt.Sprintf("persisting goals for %s: %s", user, err), map[string]any{
			"user": user,
		})
	}
	return result, nil
}

func (r *goalRegistry) RemoveGoal(user, goalID string) error {
	goals := r.goals[user]
	for i, g := range goals {
		if g.ID == goalID {
			r.goals[user] = append(goals[:i:i], goals[i+1:]...)
			r.record("goal.removed", fmt.Sprintf("goal %q removed", g.Title), map[string]any{
				"user": user, "goal_id": goalID,
			})
			if err := r.Persist(user); err != nil {
				r.record("store.save_failed", fmt.Sprintf("persisting goals for %s: %s", user, err), map[string]any{
					"user": user,
				})
			}
			return nil
		}
	}
	return fmt.Errorf("removing goal %s for user %s: %w", goalID, user, ErrGoalNotFound)
}

// SetGoalStatus toggles a goal between active and paused. Completion is
// reserved for UpdateProgress and cannot be set manually.
func (r *goalRegistry) SetGoalStatus(user, goalID string, status models.GoalStatus) error {
	if status != models.StatusActive && status != models.StatusPaused {
		return fmt.Errorf("setting status of goal %s: %q cannot be set manually", goalID, status)
	}
	g, err := r.GetGoal(user, goalID)
	if err != nil {
		return err
	}
	if g.Status == models.StatusCompleted {
		return fmt.Errorf("setting status of goal %s: goal is already completed", goalID)
	}
	g.Status = status
	r.record("goal.status_changed", fmt.Sprintf("goal %q is now %s", g.Title, status), map[string]any{
		"user": user, "goal_id": goalID, "new_status": string(status),
	})
	if err := r.Persist(user); err != nil {
		r.record("store.save_failed", fmt.Sprintf("persisting goals for %s: %s", user, err), map[string]any{
			"user": user,
		})
	}
	return nil
}

func (r *goalRegistry) GoalsByKind(user string, kind models.GoalKind) []*Goal {
	var out []*Goal
	for _, g := range r.goals[user] {
		if g.Kind == kind {
			out = append(out, g)
		}
	}
	return out
}

func (r *goalRegistry) GoalsByStatus(user string, status models.GoalStatus) []*Goal {
	var out []*Goal
	for _, g := range r.goals[user] {
		if g.Status == status {
			out = append(out, g)
		}
	}
	return out
}

// SearchGoals matches the term case-insensitively against title and
// description. An empty result is a normal outcome, not an error.
func (r *goalRegistry) SearchGoals(user, term string) []*Goal {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var out []*Goal
	for _, g := range r.goals[user] {
		if strings.Contains(strings.ToLower(g.Title), term) ||
			strings.Contains(strings.ToLower(g.Description), term) {
			out = append(out, g)
		}
	}
	return out
}

// LoadFromStore reads the user's persisted records and replaces the user's
// in-memory goals with those that reconstruct cleanly, so a reload never
// duplicates goals already held. Records that fail reconstruction are skipped
// and reported through the event log, matching the store's tolerant load
// policy.
func (r *goalRegistry) LoadFromStore(user string) (int, error) {
	if r.store == nil {
		return 0, fmt.Errorf("loading goals: no store attached")
	}
	records, err := r.store.LoadGoals(user)
	if err != nil {
		return 0, fmt.Errorf("loading goals for %s: %w", user, err)
	}

	fresh := make([]*Goal, 0, len(records))
	for _, rec := range records {
		g, err := GoalFromRecord(rec)
		if err != nil {
			r.record("store.load_skipped", fmt.Sprintf("skipping goal %q: %s", rec.Title, err), map[string]any{
				"user": user, "goal_id": rec.ID,
			})
			continue
		}
		fresh = append(fresh, g)
	}
	if len(fresh) == 0 {
		delete(r.goals, user)
	} else {
		r.goals[user] = fresh
	}
	return len(fresh), nil
}

// Backup writes a timestamped snapshot of every user's goals through the
// store and returns the snapshot filename.
func (r *goalRegistry) Backup() (string, error) {
	if r.store == nil {
		return "", fmt.Errorf("creating backup: no store attached")
	}

	snapshot := models.BackupFile{
		GoalsStorage:    make(map[string][]models.GoalRecord, len(r.goals)),
		BackupTimestamp: time.Now().Format(time.RFC3339),
	}
	for user, goals := range r.goals {
		records := make([]models.GoalRecord, 0, len(goals))
		for _, g := range goals {
			records = append(records, g.ToRecord())
		}
		snapshot.GoalsStorage[user] = records
	}

	filename := fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	if err := r.store.SaveBackup(snapshot, filename); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	r.record("backup.created", fmt.Sprintf("backup %s created", filename), map[string]any{
		"filename": filename, "users": len(snapshot.GoalsStorage),
	})
	return filename, nil
}

// Persist re-serializes the user's full goal list to the store. A nil store
// makes this a no-op so the registry works standalone in tests.
func (r *goalRegistry) Persist(user string) error {
	if r.store == nil {
		return nil
	}
	goals := r.goals[user]
	records := make([]models.GoalRecord, 0, len(goals))
	for _, g := range goals {
		records = append(records, g.ToRecord())
	}
	return r.store.SaveGoals(user, records)
}

// Users returns every username with at least one goal, in no particular order.
func (r *goalRegistry) Users() []string {
	out := make([]string, 0, len(r.goals))
	for user := range r.goals {
		out = append(out, user)
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
