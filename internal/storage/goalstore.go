// Package storage implements the file-backed persistence layer: the goals
// and progress JSON files, timestamped pre-write backups, full-registry
// snapshots, and backup retention.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// Fixed directory layout under the data directory.
const (
	goalsFileName    = "goals.json"
	progressFileName = "progress.json"
	backupDirName    = "backups"
	exportDirName    = "exports"
)

// ErrStoreBusy is returned when a save hits a file that is already being
// written by this process. The marker is a reentrancy guard, not a mutex;
// it does not protect against other processes.
var ErrStoreBusy = errors.New("file is currently being written")

// GoalStore persists per-user goal records and full-registry snapshots.
type GoalStore interface {
	SaveGoals(user string, records []models.GoalRecord) error
	LoadGoals(user string) ([]models.GoalRecord, error)
	LoadAll() (map[string][]models.GoalRecord, error)
	SaveBackup(data models.BackupFile, filename string) error
	BackupList() ([]BackupInfo, error)
	CleanupOldBackups() error
	RestoreFromBackup(filename string) error
	Stats() (DataStats, error)
	ExportDir() string
}

// BackupInfo describes one backup file, newest first in listings.
type BackupInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size_bytes"`
	Created  time.Time `json:"created_date"`
}

// FileStats describes one data file for Stats.
type FileStats struct {
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size_bytes,omitempty"`
	Modified time.Time `json:"modified_date,omitempty"`
}

// DataStats summarizes the on-disk state of the store.
type DataStats struct {
	Goals       FileStats `json:"goals"`
	Progress    FileStats `json:"progress"`
	GoalCount   int       `json:"goal_count"`
	UserCount   int       `json:"user_count"`
	BackupCount int       `json:"backup_count"`
	TotalSize   int64     `json:"total_size_bytes"`
}

type fileGoalStore struct {
	dataDir   string
	retention int

	// writing marks files mid-write so a reentrant save on the same file is
	// rejected instead of interleaving.
	writing map[string]bool

	logf func(format string, args ...any)
}

// NewGoalStore creates a GoalStore rooted at dataDir, creating the directory
// layout if needed. retention is the number of full snapshots kept by
// CleanupOldBackups; zero keeps every snapshot, negative falls back to the
// default of 10. logf receives diagnostic messages for skipped records and
// backup housekeeping; nil silences them.
func NewGoalStore(dataDir string, retention int, logf func(format string, args ...any)) (GoalStore, error) {
	if retention < 0 {
		retention = 10
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	s := &fileGoalStore{
		dataDir:   dataDir,
		retention: retention,
		writing:   make(map[string]bool),
		logf:      logf,
	}
	for _, dir := range []string{dataDir, s.backupDir(), s.ExportDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("initializing data directory %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *fileGoalStore) goalsPath() string  { return filepath.Join(s.dataDir, goalsFileName) }
func (s *fileGoalStore) backupDir() string  { return filepath.Join(s.dataDir, backupDirName) }
func (s *fileGoalStore) ExportDir() string  { return filepath.Join(s.dataDir, exportDirName) }
func (s *fileGoalStore) progressPath() string {
	return filepath.Join(s.dataDir, progressFileName)
}

// SaveGoals merges the user's records into the on-disk mapping, preserving
// other users' entries, and writes the whole mapping back. Records missing
// one of id/title/target_value are skipped with a logged warning rather than
// aborting the batch. The existing file is copied into the backup directory
// before being overwritten.
func (s *fileGoalStore) SaveGoals(user string, records []models.GoalRecord) error {
	path := s.goalsPath()
	if s.writing[path] {
		return fmt.Errorf("saving goals: %w", ErrStoreBusy)
	}
	s.writing[path] = true
	defer delete(s.writing, path)

	kept := make([]models.GoalRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" || rec.Title == "" || rec.TargetValue == 0 {
			s.logf("skipping goal record with incomplete data: %q", rec.Title)
			continue
		}
		kept = append(kept, rec)
	}

	if err := s.backupBeforeWrite(path); err != nil {
		// Best effort: a failed pre-write copy does not block the save.
		s.logf("pre-write backup failed: %v", err)
	}

	existing := make(map[string][]models.GoalRecord)
	if raw, err := os.ReadFile(path); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &existing); err != nil {
			s.logf("goals file is corrupt, starting fresh: %v", err)
			existing = make(map[string][]models.GoalRecord)
		}
	}
	existing[user] = kept

	return writeJSONFile(path, existing)
}

// LoadGoals returns the user's stored records. A missing or empty file is
// initialized to an empty mapping and yields an empty result; a corrupt file
// is replaced with an empty mapping. Corruption is deliberately treated as
// "no data", not as an error to propagate.
func (s *fileGoalStore) LoadGoals(user string) ([]models.GoalRecord, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	return all[user], nil
}

// LoadAll returns the complete on-disk mapping with the same missing/empty/
// corrupt handling as LoadGoals.
func (s *fileGoalStore) LoadAll() (map[string][]models.GoalRecord, error) {
	path := s.goalsPath()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if werr := writeJSONFile(path, map[string][]models.GoalRecord{}); werr != nil {
			return nil, fmt.Errorf("initializing goals file: %w", werr)
		}
		return map[string][]models.GoalRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading goals file: %w", err)
	}
	if len(raw) == 0 {
		if werr := writeJSONFile(path, map[string][]models.GoalRecord{}); werr != nil {
			return nil, fmt.Errorf("initializing goals file: %w", werr)
		}
		return map[string][]models.GoalRecord{}, nil
	}

	var data map[string][]models.GoalRecord
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logf("goals file is corrupt, resetting: %v", err)
		if werr := writeJSONFile(path, map[string][]models.GoalRecord{}); werr != nil {
			return nil, fmt.Errorf("resetting corrupt goals file: %w", werr)
		}
		return map[string][]models.GoalRecord{}, nil
	}
	return data, nil
}

// backupBeforeWrite copies an existing file into the backup directory under a
// timestamped name. A missing source is not an error.
func (s *fileGoalStore) backupBeforeWrite(path string) error {
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s for backup: %w", path, err)
	}
	defer src.Close()

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	name := fmt.Sprintf("%s_backup_%s%s", stem, time.Now().Format("20060102_150405"), ext)

	dst, err := os.Create(filepath.Join(s.backupDir(), name))
	if err != nil {
		return fmt.Errorf("creating backup copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying %s to backup: %w", base, err)
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Stats reports file sizes and record counts for the status command.
func (s *fileGoalStore) Stats() (DataStats, error) {
	var stats DataStats

	fill := func(path string) FileStats {
		fi, err := os.Stat(path)
		if err != nil {
			return FileStats{}
		}
		return FileStats{Exists: true, Size: fi.Size(), Modified: fi.ModTime()}
	}
	stats.Goals = fill(s.goalsPath())
	stats.Progress = fill(s.progressPath())
	stats.TotalSize = stats.Goals.Size + stats.Progress.Size

	all, err := s.LoadAll()
	if err != nil {
		return stats, err
	}
	stats.UserCount = len(all)
	for _, records := range all {
		stats.GoalCount += len(records)
	}

	backups, err := s.BackupList()
	if err != nil {
		return stats, err
	}
	stats.BackupCount = len(backups)
	return stats, nil
}
