package models

// ProgressRecord is a standalone progress-log entry persisted to
// progress.json, separate from the per-goal history kept inside GoalRecord.
type ProgressRecord struct {
	ID        string  `json:"id"`
	GoalID    string  `json:"goal_id"`
	Value     float64 `json:"value"`
	Note      string  `json:"note"`
	Timestamp string  `json:"timestamp"`
}
