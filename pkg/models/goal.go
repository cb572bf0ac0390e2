package models

// GoalKind discriminates the goal variants.
type GoalKind string

const (
	KindGeneral  GoalKind = "general"
	KindPersonal GoalKind = "personal"
	KindBusiness GoalKind = "business"
)

// Valid reports whether k is a known goal kind.
func (k GoalKind) Valid() bool {
	switch k {
	case KindGeneral, KindPersonal, KindBusiness:
		return true
	}
	return false
}

// GoalStatus represents the current lifecycle state of a goal.
type GoalStatus string

const (
	StatusActive    GoalStatus = "active"
	StatusCompleted GoalStatus = "completed"
	StatusPaused    GoalStatus = "paused"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusPaused:
		return true
	}
	return false
}

// HistoryRecord is the wire form of a single accepted progress change.
type HistoryRecord struct {
	Date     string  `json:"date"`
	OldValue float64 `json:"old_value"`
	NewValue float64 `json:"new_value"`
}

// MilestoneRecord is the wire form of a business-goal milestone.
type MilestoneRecord struct {
	Label         string  `json:"label"`
	TargetPercent float64 `json:"target_percent"`
}

// GoalRecord is the on-disk and interchange representation of a goal.
// All dates are RFC 3339 strings; Deadline is nullable. Variant fields
// are omitted for kinds that do not carry them.
type GoalRecord struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TargetValue  float64         `json:"target_value"`
	CurrentValue float64         `json:"current_value"`
	GoalType     GoalKind        `json:"goal_type"`
	Status       GoalStatus      `json:"status"`
	CreatedDate  string          `json:"created_date"`
	Deadline     *string         `json:"deadline"`
	History      []HistoryRecord `json:"history"`

	// Personal variant.
	PriorityLabel   string   `json:"priority,omitempty"`
	IsHabit         bool     `json:"is_habit,omitempty"`
	MotivationNotes []string `json:"motivation_notes,omitempty"`

	// Business variant.
	Department   string            `json:"department,omitempty"`
	Budget       float64           `json:"budget,omitempty"`
	Stakeholders []string          `json:"stakeholders,omitempty"`
	Milestones   []MilestoneRecord `json:"milestones,omitempty"`
}

// BackupFile is the top-level structure of a full-registry snapshot.
type BackupFile struct {
	GoalsStorage    map[string][]GoalRecord `json:"goals_storage"`
	BackupTimestamp string                  `json:"backup_timestamp"`
}
