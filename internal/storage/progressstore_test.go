package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

func newTestProgressStore(t *testing.T) (ProgressStore, string) {
	t.Helper()
	store, dir := newTestStore(t)
	ps, err := NewProgressStore(store)
	if err != nil {
		t.Fatalf("NewProgressStore() failed: %v", err)
	}
	return ps, dir
}

func progressEntry(id, goalID string, value float64) models.ProgressRecord {
	return models.ProgressRecord{
		ID:        id,
		GoalID:    goalID,
		Value:     value,
		Note:      "checkpoint",
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func TestProgressAppendAndLoad(t *testing.T) {
	ps, _ := newTestProgressStore(t)

	if err := ps.Append(progressEntry("p1", "g1", 5)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := ps.Append(progressEntry("p2", "g1", 8)); err != nil {
		t.Fatalf("second Append() failed: %v", err)
	}

	records, err := ps.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress() failed: %v", err)
	}
	if len(records) != 2 || records[0].ID != "p1" || records[1].Value != 8 {
		t.Fatalf("records = %+v", records)
	}
}

func TestLoadProgressMissingFile(t *testing.T) {
	ps, dir := newTestProgressStore(t)

	records, err := ps.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress() failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %+v, want empty", records)
	}
	if _, err := os.Stat(filepath.Join(dir, "progress.json")); err != nil {
		t.Fatalf("progress file not initialized: %v", err)
	}
}

func TestLoadProgressCorruptFileResets(t *testing.T) {
	ps, dir := newTestProgressStore(t)
	path := filepath.Join(dir, "progress.json")
	if err := os.WriteFile(path, []byte("[{broken"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	records, err := ps.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress() must treat corruption as empty, got: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %+v, want empty", records)
	}

	// The file was reset to a valid empty list.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading reset file: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("reset file contents = %q, want empty list", raw)
	}
}

func TestSaveProgressTakesPreWriteBackup(t *testing.T) {
	ps, dir := newTestProgressStore(t)

	if err := ps.SaveProgress([]models.ProgressRecord{progressEntry("p1", "g1", 1)}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := ps.SaveProgress([]models.ProgressRecord{progressEntry("p2", "g1", 2)}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "backups", "progress_backup_*.json"))
	if err != nil {
		t.Fatalf("globbing backups: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no pre-write backup of progress.json found")
	}
}
