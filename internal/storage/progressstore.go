package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/valter-silva-au/goaltrack/pkg/models"
)

// ProgressStore persists the flat progress log kept alongside the per-goal
// history. Entries are append-only from the caller's perspective.
type ProgressStore interface {
	Append(rec models.ProgressRecord) error
	SaveProgress(records []models.ProgressRecord) error
	LoadProgress() ([]models.ProgressRecord, error)
}

type fileProgressStore struct {
	store *fileGoalStore
}

// NewProgressStore creates a ProgressStore sharing the goal store's data
// directory and write-marker set.
func NewProgressStore(gs GoalStore) (ProgressStore, error) {
	fs, ok := gs.(*fileGoalStore)
	if !ok {
		return nil, fmt.Errorf("progress store requires a file-backed goal store")
	}
	return &fileProgressStore{store: fs}, nil
}

// Append loads the existing log, adds one entry, and writes it back.
func (p *fileProgressStore) Append(rec models.ProgressRecord) error {
	records, err := p.LoadProgress()
	if err != nil {
		return fmt.Errorf("appending progress entry: %w", err)
	}
	return p.SaveProgress(append(records, rec))
}

// SaveProgress overwrites the progress file, taking a timestamped pre-write
// copy first, mirroring the goals file policy.
func (p *fileProgressStore) SaveProgress(records []models.ProgressRecord) error {
	path := p.store.progressPath()
	if p.store.writing[path] {
		return fmt.Errorf("saving progress: %w", ErrStoreBusy)
	}
	p.store.writing[path] = true
	defer delete(p.store.writing, path)

	if err := p.store.backupBeforeWrite(path); err != nil {
		p.store.logf("pre-write backup failed: %v", err)
	}
	if records == nil {
		records = []models.ProgressRecord{}
	}
	return writeJSONFile(path, records)
}

// LoadProgress returns the stored log. Missing, empty, and corrupt files all
// yield an empty log, with the file reset to a valid empty structure.
func (p *fileProgressStore) LoadProgress() ([]models.ProgressRecord, error) {
	path := p.store.progressPath()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(raw) == 0) {
		if werr := writeJSONFile(path, []models.ProgressRecord{}); werr != nil {
			return nil, fmt.Errorf("initializing progress file: %w", werr)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading progress file: %w", err)
	}

	var records []models.ProgressRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		p.store.logf("progress file is corrupt, resetting: %v", err)
		if werr := writeJSONFile(path, []models.ProgressRecord{}); werr != nil {
			return nil, fmt.Errorf("resetting corrupt progress file: %w", werr)
		}
		return nil, nil
	}
	return records, nil
}
