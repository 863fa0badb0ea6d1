package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/rewind"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.History.LevelsOfUndo != want.History.LevelsOfUndo ||
		cfg.History.GroupsByEvent != want.History.GroupsByEvent {
		t.Errorf("Load = %+v, want defaults %+v", cfg, want)
	}
	if len(cfg.History.RunLoopModes) != 1 || cfg.History.RunLoopModes[0] != rewind.DefaultRunLoopMode {
		t.Errorf("RunLoopModes = %v", cfg.History.RunLoopModes)
	}
}

func TestLoadParsesHistorySection(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rewind.toml", `
[history]
levels_of_undo = 50
groups_by_event = false
run_loop_modes = ["default", "modal"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.LevelsOfUndo != 50 {
		t.Errorf("LevelsOfUndo = %d, want 50", cfg.History.LevelsOfUndo)
	}
	if cfg.History.GroupsByEvent {
		t.Error("GroupsByEvent = true, want false")
	}
	if len(cfg.History.RunLoopModes) != 2 || cfg.History.RunLoopModes[1] != "modal" {
		t.Errorf("RunLoopModes = %v", cfg.History.RunLoopModes)
	}
}

func TestLoadSyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", "[history\nlevels_of_undo = ")
	_, err := Load(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load error = %v, want *ParseError", err)
	}
	if perr.Path != path {
		t.Errorf("ParseError.Path = %q, want %q", perr.Path, path)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.History.LevelsOfUndo = -1
	if err := cfg.Validate(); !errors.Is(err, ErrNegativeLevels) {
		t.Errorf("negative levels: %v", err)
	}

	cfg = Default()
	cfg.History.RunLoopModes = []string{"default", ""}
	if err := cfg.Validate(); !errors.Is(err, ErrEmptyMode) {
		t.Errorf("empty mode: %v", err)
	}
}

func TestApply(t *testing.T) {
	m := rewind.New()
	cfg := Config{History: History{
		LevelsOfUndo:  7,
		GroupsByEvent: false,
		RunLoopModes:  []string{"modal"},
	}}
	cfg.Apply(m)

	if m.LevelsOfUndo() != 7 {
		t.Errorf("LevelsOfUndo = %d, want 7", m.LevelsOfUndo())
	}
	if m.GroupsByEvent() {
		t.Error("GroupsByEvent = true, want false")
	}
	modes := m.RunLoopModes()
	if len(modes) != 1 || modes[0] != "modal" {
		t.Errorf("RunLoopModes = %v", modes)
	}
}

func TestApplyKeepsModesWhenUnset(t *testing.T) {
	m := rewind.New()
	Config{History: History{GroupsByEvent: true}}.Apply(m)
	modes := m.RunLoopModes()
	if len(modes) != 1 || modes[0] != rewind.DefaultRunLoopMode {
		t.Errorf("RunLoopModes = %v, want default retained", modes)
	}
}
