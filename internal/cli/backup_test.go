package cli

import (
	"testing"
	"time"

	"github.com/valter-silva-au/goaltrack/internal/core"
	"github.com/valter-silva-au/goaltrack/internal/storage"
)

type eventRecorderMock struct {
	types []string
}

func (m *eventRecorderMock) Record(eventType, message string, data map[string]any) {
	m.types = append(m.types, eventType)
}

func (m *eventRecorderMock) has(eventType string) bool {
	for _, typ := range m.types {
		if typ == eventType {
			return true
		}
	}
	return false
}

func TestBackupRestoreCmd_ReloadsWithoutDuplicates(t *testing.T) {
	origStore, origRegistry, origEvents := Store, Registry, Events
	defer func() { Store, Registry, Events = origStore, origRegistry, origEvents }()

	store, err := storage.NewGoalStore(t.TempDir(), 10, nil)
	if err != nil {
		t.Fatalf("NewGoalStore() failed: %v", err)
	}
	rec := &eventRecorderMock{}
	registry := core.NewGoalRegistry(store, rec, core.RegistryOptions{ProgressCooldown: time.Nanosecond})

	g, err := core.NewGoal("Read books", "twelve this year", 12)
	if err != nil {
		t.Fatalf("NewGoal() failed: %v", err)
	}
	if err := registry.AddGoal("alice", g); err != nil {
		t.Fatalf("AddGoal() failed: %v", err)
	}
	filename, err := registry.Backup()
	if err != nil {
		t.Fatalf("Backup() failed: %v", err)
	}

	Store, Registry, Events = store, registry, rec

	if err := backupRestoreCmd.RunE(backupRestoreCmd, []string{filename}); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	// The reload replaces in-memory state instead of appending to it.
	if got := registry.GoalCount("alice"); got != 1 {
		t.Fatalf("GoalCount() = %d after restore, want 1", got)
	}
	if !rec.has("backup.restored") {
		t.Fatalf("events = %v, want backup.restored", rec.types)
	}
}

func TestBackupRestoreCmd_UninitializedStore(t *testing.T) {
	origStore, origRegistry := Store, Registry
	defer func() { Store, Registry = origStore, origRegistry }()
	Store, Registry = nil, nil

	if err := backupRestoreCmd.RunE(backupRestoreCmd, []string{"backup_x.json"}); err == nil {
		t.Fatal("expected error when the store is not initialized")
	}
}
