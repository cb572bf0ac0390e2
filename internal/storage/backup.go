package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// snapshotPrefix marks full-registry snapshots. Pre-write copies made by
// SaveGoals use the <stem>_backup_<timestamp> naming and are not counted
// against the snapshot retention limit.
const snapshotPrefix = "backup_"

// SaveBackup writes a full-registry snapshot into the backup directory and
// prunes old snapshots beyond the retention limit.
func (s *fileGoalStore) SaveBackup(data models.BackupFile, filename string) error {
	if filename == "" || strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("saving backup: invalid filename %q", filename)
	}
	path := filepath.Join(s.backupDir(), filename)
	if err := writeJSONFile(path, data); err != nil {
		return fmt.Errorf("saving backup: %w", err)
	}
	if err := s.CleanupOldBackups(); err != nil {
		s.logf("backup cleanup failed: %v", err)
	}
	return nil
}

// BackupList returns the full-registry snapshots sorted newest first.
func (s *fileGoalStore) BackupList() ([]BackupInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.backupDir(), snapshotPrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}

	infos := make([]BackupInfo, 0, len(matches))
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		infos = append(infos, BackupInfo{
			Filename: filepath.Base(path),
			Size:     fi.Size(),
			Created:  fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Created.After(infos[j].Created)
	})
	return infos, nil
}

// CleanupOldBackups deletes snapshots beyond the retention limit, keeping the
// most recently modified ones. A retention of zero disables pruning.
func (s *fileGoalStore) CleanupOldBackups() error {
	if s.retention == 0 {
		return nil
	}
	infos, err := s.BackupList()
	if err != nil {
		return err
	}
	if len(infos) <= s.retention {
		return nil
	}
	for _, info := range infos[s.retention:] {
		path := filepath.Join(s.backupDir(), info.Filename)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing old backup %s: %w", info.Filename, err)
		}
		s.logf("removed old backup %s", info.Filename)
	}
	return nil
}

// RestoreFromBackup replaces the live goals file with the named snapshot's
// contents. The current state is snapshotted first under a pre_restore name,
// so a bad restore can itself be undone.
func (s *fileGoalStore) RestoreFromBackup(filename string) error {
	path := filepath.Join(s.backupDir(), filename)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("restoring backup: %s not found", filename)
	}
	if err != nil {
		return fmt.Errorf("restoring backup: %w", err)
	}

	var backup models.BackupFile
	if err := json.Unmarshal(raw, &backup); err != nil {
		return fmt.Errorf("restoring backup %s: %w", filename, err)
	}
	if backup.GoalsStorage == nil || backup.BackupTimestamp == "" {
		return fmt.Errorf("restoring backup %s: missing goals_storage or backup_timestamp", filename)
	}

	current := models.BackupFile{
		GoalsStorage:    make(map[string][]models.GoalRecord),
		BackupTimestamp: time.Now().Format(time.RFC3339),
	}
	if live, err := s.LoadAll(); err == nil {
		current.GoalsStorage = live
	}
	preName := fmt.Sprintf("%spre_restore_%s.json", snapshotPrefix, time.Now().Format("20060102_150405"))
	if err := s.SaveBackup(current, preName); err != nil {
		return fmt.Errorf("restoring backup: snapshotting current state: %w", err)
	}

	if err := writeJSONFile(s.goalsPath(), backup.GoalsStorage); err != nil {
		return fmt.Errorf("restoring backup: %w", err)
	}
	s.logf("restored goals from %s (current state saved as %s)", filename, preName)
	return nil
}
