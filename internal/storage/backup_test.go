package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

func snapshot(users ...string) models.BackupFile {
	data := models.BackupFile{
		GoalsStorage:    make(map[string][]models.GoalRecord),
		BackupTimestamp: time.Now().Format(time.RFC3339),
	}
	for _, u := range users {
		data.GoalsStorage[u] = []models.GoalRecord{record(u+"-g1", "Goal of "+u, 10)}
	}
	return data
}

func TestSaveBackupAndList(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.SaveBackup(snapshot("alice"), "backup_20260101_120000.json"); err != nil {
		t.Fatalf("SaveBackup() failed: %v", err)
	}
	if err := store.SaveBackup(snapshot("alice", "bob"), "backup_20260102_120000.json"); err != nil {
		t.Fatalf("second SaveBackup() failed: %v", err)
	}

	infos, err := store.BackupList()
	if err != nil {
		t.Fatalf("BackupList() failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("backups = %d, want 2", len(infos))
	}
	for _, info := range infos {
		if !strings.HasPrefix(info.Filename, "backup_") || info.Size == 0 {
			t.Fatalf("backup info = %+v", info)
		}
	}
}

func TestSaveBackupRejectsBadFilename(t *testing.T) {
	store, _ := newTestStore(t)

	for _, name := range []string{"", "../escape.json", "sub/dir.json"} {
		if err := store.SaveBackup(snapshot("alice"), name); err == nil {
			t.Fatalf("SaveBackup(%q) must fail", name)
		}
	}
}

func TestBackupListIgnoresPreWriteCopies(t *testing.T) {
	store, dir := newTestStore(t)

	if err := store.SaveBackup(snapshot("alice"), "backup_20260101_120000.json"); err != nil {
		t.Fatalf("SaveBackup() failed: %v", err)
	}
	// Pre-write copies use the <stem>_backup_ naming and are not snapshots.
	copyPath := filepath.Join(dir, "backups", "goals_backup_20260101_120000.json")
	if err := os.WriteFile(copyPath, []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing pre-write copy: %v", err)
	}

	infos, err := store.BackupList()
	if err != nil {
		t.Fatalf("BackupList() failed: %v", err)
	}
	if len(infos) != 1 || infos[0].Filename != "backup_20260101_120000.json" {
		t.Fatalf("backups = %+v, want only the snapshot", infos)
	}
}

func TestCleanupOldBackupsRetention(t *testing.T) {
	dir := t.TempDir()
	store, err := NewGoalStore(dir, 2, nil)
	if err != nil {
		t.Fatalf("NewGoalStore() failed: %v", err)
	}

	names := []string{
		"backup_20260101_120000.json",
		"backup_20260102_120000.json",
		"backup_20260103_120000.json",
		"backup_20260104_120000.json",
	}
	base := time.Now().Add(-time.Hour)
	for i, name := range names {
		if err := store.SaveBackup(snapshot("alice"), name); err != nil {
			t.Fatalf("SaveBackup(%s) failed: %v", name, err)
		}
		// Spread modification times so retention ordering is deterministic.
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(filepath.Join(dir, "backups", name), mtime, mtime); err != nil {
			t.Fatalf("setting mtime: %v", err)
		}
	}

	if err := store.CleanupOldBackups(); err != nil {
		t.Fatalf("CleanupOldBackups() failed: %v", err)
	}

	infos, err := store.BackupList()
	if err != nil {
		t.Fatalf("BackupList() failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("remaining backups = %d, want 2", len(infos))
	}
	// The two newest survive.
	if infos[0].Filename != names[3] || infos[1].Filename != names[2] {
		t.Fatalf("remaining = %+v, want the two newest", infos)
	}
}

func TestCleanupOldBackupsRetentionZeroKeepsAll(t *testing.T) {
	dir := t.TempDir()
	store, err := NewGoalStore(dir, 0, nil)
	if err != nil {
		t.Fatalf("NewGoalStore() failed: %v", err)
	}

	// SaveBackup runs cleanup after every snapshot; none may be pruned.
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("backup_202601%02d_120000.json", i+1)
		if err := store.SaveBackup(snapshot("alice"), name); err != nil {
			t.Fatalf("SaveBackup(%s) failed: %v", name, err)
		}
	}

	infos, err := store.BackupList()
	if err != nil {
		t.Fatalf("BackupList() failed: %v", err)
	}
	if len(infos) != 12 {
		t.Fatalf("remaining backups = %d, want all 12", len(infos))
	}
}

func TestRestoreFromBackup(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.SaveGoals("alice", []models.GoalRecord{record("live", "Live goal", 1)}); err != nil {
		t.Fatalf("SaveGoals() failed: %v", err)
	}
	if err := store.SaveBackup(snapshot("bob"), "backup_20260101_120000.json"); err != nil {
		t.Fatalf("SaveBackup() failed: %v", err)
	}

	if err := store.RestoreFromBackup("backup_20260101_120000.json"); err != nil {
		t.Fatalf("RestoreFromBackup() failed: %v", err)
	}

	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if _, ok := all["bob"]; !ok {
		t.Fatalf("restored mapping = %+v, want bob's goals", all)
	}
	if _, ok := all["alice"]; ok {
		t.Fatal("restore must replace the live file, not merge")
	}

	// The pre-restore state was snapshotted so the restore can be undone.
	infos, err := store.BackupList()
	if err != nil {
		t.Fatalf("BackupList() failed: %v", err)
	}
	var found bool
	for _, info := range infos {
		if strings.HasPrefix(info.Filename, "backup_pre_restore_") {
			found = true
		}
	}
	if !found {
		t.Fatalf("backups = %+v, want a backup_pre_restore_ snapshot", infos)
	}
}

func TestRestoreFromBackupMissingFile(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.RestoreFromBackup("backup_nope.json"); err == nil {
		t.Fatal("restoring a missing backup must fail")
	}
}

func TestRestoreFromBackupInvalidStructure(t *testing.T) {
	store, dir := newTestStore(t)

	// Valid JSON but missing the required snapshot fields.
	path := filepath.Join(dir, "backups", "backup_bad.json")
	if err := os.WriteFile(path, []byte(`{"other": true}`), 0o644); err != nil {
		t.Fatalf("writing bad backup: %v", err)
	}

	err := store.RestoreFromBackup("backup_bad.json")
	if err == nil || !strings.Contains(err.Error(), "goals_storage") {
		t.Fatalf("error = %v, want structure validation failure", err)
	}
}
