package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/valter-silva-au/goaltrack/internal/core"
)

func TestNewAppWiresServices(t *testing.T) {
	dir := t.TempDir()

	app, err := NewApp(dir)
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}
	defer app.Close()

	if app.Registry == nil || app.Store == nil || app.ProgressStore == nil {
		t.Fatal("core services must be wired")
	}
	if app.ConfigMgr == nil || app.Webhooks == nil || app.Notifier == nil {
		t.Fatal("config and exchange services must be wired")
	}
	if app.EventLog == nil || app.MetricsCalc == nil || app.AlertEngine == nil {
		t.Fatal("observability services must be wired")
	}

	// The data directory layout was created under the base path.
	if _, err := os.Stat(filepath.Join(dir, "data", "backups")); err != nil {
		t.Fatalf("data layout not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".goaltrack_events.jsonl")); err != nil {
		t.Fatalf("event log not created: %v", err)
	}
}

func TestNewAppReadsConfig(t *testing.T) {
	dir := t.TempDir()
	content := "default_user: carol\ndata_dir: store\n"
	if err := os.WriteFile(filepath.Join(dir, ".goaltrack.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	app, err := NewApp(dir)
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}
	defer app.Close()

	if app.Config.DefaultUser != "carol" {
		t.Errorf("default user = %q, want carol", app.Config.DefaultUser)
	}
	if _, err := os.Stat(filepath.Join(dir, "store")); err != nil {
		t.Errorf("configured data dir not created: %v", err)
	}
}

func TestNewAppPreloadsStoredGoals(t *testing.T) {
	dir := t.TempDir()

	// First app instance stores a goal.
	app, err := NewApp(dir)
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}
	g, err := core.NewGoal("Read books", "twelve this year", 12)
	if err != nil {
		t.Fatalf("NewGoal() failed: %v", err)
	}
	if err := app.Registry.AddGoal("alice", g); err != nil {
		t.Fatalf("AddGoal() failed: %v", err)
	}
	app.Close()

	// A fresh instance over the same base path sees the goal.
	app2, err := NewApp(dir)
	if err != nil {
		t.Fatalf("second NewApp() failed: %v", err)
	}
	defer app2.Close()

	if app2.Registry.GoalCount("alice") != 1 {
		t.Errorf("preloaded count = %d, want 1", app2.Registry.GoalCount("alice"))
	}
}

func TestResolveBasePathEnvOverride(t *testing.T) {
	t.Setenv("GOALTRACK_HOME", "/tmp/goaltrack-home")
	if got := ResolveBasePath(); got != "/tmp/goaltrack-home" {
		t.Errorf("ResolveBasePath() = %q, want the env override", got)
	}
}

func TestResolveBasePathFindsConfigDir(t *testing.T) {
	t.Setenv("GOALTRACK_HOME", "")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".goaltrack.yaml"), []byte("default_user: x\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("creating subdir: %v", err)
	}
	t.Chdir(sub)

	got := ResolveBasePath()
	// Resolve symlinks so macOS /private/var temp dirs compare equal.
	wantReal, _ := filepath.EvalSymlinks(dir)
	gotReal, _ := filepath.EvalSymlinks(got)
	if gotReal != wantReal {
		t.Errorf("ResolveBasePath() = %q, want %q", got, dir)
	}
}
