// Package config defines the watcher's persistent configuration: the
// WatcherConfig a run is constructed from, and the config.yml snapshot
// written into every RunOutput directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DeleteRecordings values, per spec: never analyzed input is removed
// unless explicitly opted in.
const (
	DeleteNever  = "never"
	DeleteAlways = "always"
)

// DefaultPattern and DefaultCheckTime mirror the original tool's
// defaults for a BirdNET-style `.wav` deployment polling once a second.
const (
	DefaultPattern   = ".wav"
	DefaultCheckTime = 1
)

// WatcherConfig is the full configuration of one watcher run. It is
// validated once at construction and deep-copied on every change_analyzer
// so the pre-swap snapshot used for rollback never aliases the live one.
type WatcherConfig struct {
	InputDir         string
	OutputRoot       string
	ModelDir         string
	ModelName        string
	Pattern          string
	CheckTime        int
	DeleteRecordings string

	Preprocessor     map[string]any
	Model            map[string]any
	Recording        map[string]any
	SpeciesPredictor map[string]any
}

// ConfigurationError names the offending field, per §7 of the design:
// every validation failure must be distinguishable from every other.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// New validates cfg and returns a deep copy ready to be handed to a
// supervisor. Unset optional config blocks default to empty mappings.
func New(cfg WatcherConfig) (WatcherConfig, error) {
	if info, err := os.Stat(cfg.InputDir); err != nil || !info.IsDir() {
		return WatcherConfig{}, &ConfigurationError{Field: "input_dir", Reason: "does not exist"}
	}
	if info, err := os.Stat(cfg.OutputRoot); err != nil || !info.IsDir() {
		return WatcherConfig{}, &ConfigurationError{Field: "output_root", Reason: "does not exist"}
	}
	if info, err := os.Stat(cfg.ModelDir); err != nil || !info.IsDir() {
		return WatcherConfig{}, &ConfigurationError{Field: "model_dir", Reason: "does not exist"}
	}
	if cfg.ModelName == "" {
		return WatcherConfig{}, &ConfigurationError{Field: "model_name", Reason: "must not be empty"}
	}
	modelSubdir := filepath.Join(cfg.ModelDir, cfg.ModelName)
	if info, err := os.Stat(modelSubdir); err != nil || !info.IsDir() {
		return WatcherConfig{}, &ConfigurationError{Field: "model_name", Reason: fmt.Sprintf("no subdirectory %q under model_dir", cfg.ModelName)}
	}

	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.CheckTime == 0 {
		cfg.CheckTime = DefaultCheckTime
	}
	if cfg.CheckTime < 1 {
		return WatcherConfig{}, &ConfigurationError{Field: "check_time", Reason: "must be >= 1"}
	}
	if cfg.DeleteRecordings == "" {
		cfg.DeleteRecordings = DeleteNever
	}
	if cfg.DeleteRecordings != DeleteNever && cfg.DeleteRecordings != DeleteAlways {
		return WatcherConfig{}, &ConfigurationError{Field: "delete_recordings", Reason: `must be "never" or "always"`}
	}

	return cfg.Clone(), nil
}

// Clone deep-copies every field, including the four opaque config
// blocks, so the returned value shares no mutable state with cfg.
func (c WatcherConfig) Clone() WatcherConfig {
	out := c
	out.Preprocessor = cloneMap(c.Preprocessor)
	out.Model = cloneMap(c.Model)
	out.Recording = cloneMap(c.Recording)
	out.SpeciesPredictor = cloneMap(c.SpeciesPredictor)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ModelSubdir returns model_dir/model_name.
func (c WatcherConfig) ModelSubdir() string {
	return filepath.Join(c.ModelDir, c.ModelName)
}

// HasSpeciesPredictor reports whether Recording carries the three
// fields (date, lat, lon) that make a SpeciesPredictor constructible,
// per RecordingFactory's contract (§4.4).
func (c WatcherConfig) HasSpeciesPredictor() bool {
	if c.Recording == nil {
		return false
	}
	for _, key := range []string{"date", "lat", "lon"} {
		v, ok := c.Recording[key]
		if !ok || v == nil {
			return false
		}
	}
	return true
}
