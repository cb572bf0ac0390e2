package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

func newTestStore(t *testing.T) (GoalStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewGoalStore(dir, 10, nil)
	if err != nil {
		t.Fatalf("NewGoalStore() failed: %v", err)
	}
	return store, dir
}

func record(id, title string, target float64) models.GoalRecord {
	return models.GoalRecord{
		ID:          id,
		Title:       title,
		Description: "test",
		TargetValue: target,
		GoalType:    models.KindGeneral,
		Status:      models.StatusActive,
	}
}

func TestNewGoalStoreCreatesLayout(t *testing.T) {
	_, dir := newTestStore(t)
	for _, sub := range []string{"backups", "exports"} {
		if fi, err := os.Stat(filepath.Join(dir, sub)); err != nil || !fi.IsDir() {
			t.Fatalf("directory %s not created: %v", sub, err)
		}
	}
}

func TestSaveAndLoadGoals(t *testing.T) {
	store, _ := newTestStore(t)

	records := []models.GoalRecord{record("g1", "Read books", 12), record("g2", "Run far", 5)}
	if err := store.SaveGoals("alice", records); err != nil {
		t.Fatalf("SaveGoals() failed: %v", err)
	}

	loaded, err := store.LoadGoals("alice")
	if err != nil {
		t.Fatalf("LoadGoals() failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "g1" || loaded[1].Title != "Run far" {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestSaveGoalsPreservesOtherUsers(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.SaveGoals("alice", []models.GoalRecord{record("a1", "Alice goal", 1)}); err != nil {
		t.Fatalf("SaveGoals(alice) failed: %v", err)
	}
	if err := store.SaveGoals("bob", []models.GoalRecord{record("b1", "Bob goal", 1)}); err != nil {
		t.Fatalf("SaveGoals(bob) failed: %v", err)
	}

	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if len(all) != 2 || len(all["alice"]) != 1 || len(all["bob"]) != 1 {
		t.Fatalf("on-disk mapping = %+v", all)
	}
}

func TestSaveGoalsSkipsIncompleteRecords(t *testing.T) {
	store, _ := newTestStore(t)

	records := []models.GoalRecord{
		record("g1", "Kept goal", 10),
		{ID: "", Title: "No id", TargetValue: 10},
		{ID: "g3", Title: "", TargetValue: 10},
		{ID: "g4", Title: "Zero target", TargetValue: 0},
	}
	if err := store.SaveGoals("alice", records); err != nil {
		t.Fatalf("SaveGoals() failed: %v", err)
	}

	loaded, err := store.LoadGoals("alice")
	if err != nil {
		t.Fatalf("LoadGoals() failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "g1" {
		t.Fatalf("loaded = %+v, want only g1", loaded)
	}
}

func TestLoadGoalsMissingFile(t *testing.T) {
	store, dir := newTestStore(t)

	loaded, err := store.LoadGoals("alice")
	if err != nil {
		t.Fatalf("LoadGoals() failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("loaded = %+v, want empty", loaded)
	}
	// The file is initialized so later reads see a valid structure.
	if _, err := os.Stat(filepath.Join(dir, "goals.json")); err != nil {
		t.Fatalf("goals file not initialized: %v", err)
	}
}

func TestLoadGoalsCorruptFileResets(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, "goals.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	loaded, err := store.LoadGoals("alice")
	if err != nil {
		t.Fatalf("LoadGoals() must treat corruption as empty, got: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("loaded = %+v, want empty", loaded)
	}

	// The corrupt file was replaced with a valid empty mapping.
	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() after reset failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("reset mapping = %+v, want empty", all)
	}
}

func TestSaveGoalsTakesPreWriteBackup(t *testing.T) {
	store, dir := newTestStore(t)

	if err := store.SaveGoals("alice", []models.GoalRecord{record("g1", "First", 1)}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	// The second save must copy the existing file aside first.
	if err := store.SaveGoals("alice", []models.GoalRecord{record("g2", "Second", 1)}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "backups", "goals_backup_*.json"))
	if err != nil {
		t.Fatalf("globbing backups: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no pre-write backup of goals.json found")
	}
}

func TestStats(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.SaveGoals("alice", []models.GoalRecord{record("g1", "One", 1), record("g2", "Two", 2)}); err != nil {
		t.Fatalf("SaveGoals(alice) failed: %v", err)
	}
	if err := store.SaveGoals("bob", []models.GoalRecord{record("b1", "Three", 3)}); err != nil {
		t.Fatalf("SaveGoals(bob) failed: %v", err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if !stats.Goals.Exists || stats.Goals.Size == 0 {
		t.Fatalf("goals file stats = %+v", stats.Goals)
	}
	if stats.GoalCount != 3 || stats.UserCount != 2 {
		t.Fatalf("counts = %d goals / %d users, want 3/2", stats.GoalCount, stats.UserCount)
	}
}
