package observability

import (
	"path/filepath"
	"testing"
	"time"
)

func TestMetricsCalculate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog() failed: %v", err)
	}
	defer log.Close()

	writes := []Event{
		{Type: EventGoalCreated, Data: map[string]any{"kind": "personal"}},
		{Type: EventGoalCreated, Data: map[string]any{"kind": "personal"}},
		{Type: EventGoalCreated, Data: map[string]any{"kind": "business"}},
		{Type: EventGoalProgress},
		{Type: EventGoalProgress},
		{Type: EventGoalCompleted},
		{Type: EventMilestoneAchieved},
		{Type: EventGoalRemoved},
		{Type: EventImportFinished},
		{Type: EventExportFinished},
		{Type: EventBackupCreated},
		{Type: EventWebhookDelivered},
	}
	for _, e := range writes {
		if err := log.Write(e); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	m, err := NewMetricsCalculator(log).Calculate(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Calculate() failed: %v", err)
	}

	if m.EventCount != len(writes) {
		t.Fatalf("event count = %d, want %d", m.EventCount, len(writes))
	}
	if m.GoalsCreated != 3 || m.GoalsCompleted != 1 || m.GoalsRemoved != 1 {
		t.Fatalf("goal counters = %d/%d/%d", m.GoalsCreated, m.GoalsCompleted, m.GoalsRemoved)
	}
	if m.ProgressUpdates != 2 || m.MilestonesAchieved != 1 {
		t.Fatalf("progress counters = %d/%d", m.ProgressUpdates, m.MilestonesAchieved)
	}
	if m.GoalsByKind["personal"] != 2 || m.GoalsByKind["business"] != 1 {
		t.Fatalf("goals by kind = %+v", m.GoalsByKind)
	}
	if m.ImportsFinished != 1 || m.ExportsFinished != 1 || m.BackupsCreated != 1 || m.WebhooksDelivered != 1 {
		t.Fatalf("io counters = %d/%d/%d/%d", m.ImportsFinished, m.ExportsFinished, m.BackupsCreated, m.WebhooksDelivered)
	}
	if m.OldestEvent == nil || m.NewestEvent == nil {
		t.Fatal("oldest/newest must be set when events exist")
	}
	if m.OldestEvent.After(*m.NewestEvent) {
		t.Fatalf("oldest %v after newest %v", m.OldestEvent, m.NewestEvent)
	}
}

func TestMetricsCalculateRespectsSince(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog() failed: %v", err)
	}
	defer log.Close()

	if err := log.Write(Event{Time: time.Now().UTC().Add(-72 * time.Hour), Type: EventGoalCreated}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := log.Write(Event{Type: EventGoalCreated}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	m, err := NewMetricsCalculator(log).Calculate(time.Now().UTC().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Calculate() failed: %v", err)
	}
	if m.GoalsCreated != 1 || m.EventCount != 1 {
		t.Fatalf("metrics = %+v, want only the recent event", m)
	}
}

func TestMetricsCalculateEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog() failed: %v", err)
	}
	defer log.Close()

	m, err := NewMetricsCalculator(log).Calculate(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Calculate() failed: %v", err)
	}
	if m.EventCount != 0 || m.OldestEvent != nil || m.NewestEvent != nil {
		t.Fatalf("metrics = %+v, want zero values", m)
	}
}
