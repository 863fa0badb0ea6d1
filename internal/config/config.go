// Package config loads history-manager settings from TOML files and
// applies them to a live manager. A watcher supports live reload.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/rewind"
)

// Validation errors.
var (
	ErrNegativeLevels = errors.New("config: levels_of_undo must not be negative")
	ErrEmptyMode      = errors.New("config: run_loop_modes must not contain empty modes")
)

// ParseError wraps a TOML syntax error with the file it came from.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// History holds the undo-history settings.
type History struct {
	// LevelsOfUndo caps the number of retained top-level groups per
	// stack. Zero means unlimited.
	LevelsOfUndo int `toml:"levels_of_undo"`

	// GroupsByEvent enables implicit per-iteration grouping.
	GroupsByEvent bool `toml:"groups_by_event"`

	// RunLoopModes lists the modes in which implicit groups close at
	// iteration boundaries.
	RunLoopModes []string `toml:"run_loop_modes"`
}

// Config is the full settings file.
type Config struct {
	History History `toml:"history"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		History: History{
			LevelsOfUndo:  0,
			GroupsByEvent: true,
			RunLoopModes:  []string{rewind.DefaultRunLoopMode},
		},
	}
}

// Load reads the file at path. A missing file yields Default with no
// error; a present file replaces the defaults wholesale.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ParseError{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings for values Apply would reject.
func (c Config) Validate() error {
	if c.History.LevelsOfUndo < 0 {
		return ErrNegativeLevels
	}
	for _, mode := range c.History.RunLoopModes {
		if mode == "" {
			return ErrEmptyMode
		}
	}
	return nil
}

// Apply pushes the settings onto m.
func (c Config) Apply(m *rewind.Manager) {
	m.SetLevelsOfUndo(c.History.LevelsOfUndo)
	m.SetGroupsByEvent(c.History.GroupsByEvent)
	if len(c.History.RunLoopModes) > 0 {
		m.SetRunLoopModes(c.History.RunLoopModes)
	}
}
