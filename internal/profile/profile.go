// Package profile manages named, reusable AnalyzerProfile bundles: a
// model_name plus the four opaque config blocks, a file pattern, a
// poll interval, and a deletion policy, stored as
// ~/.faunanet/profiles/<name>.yaml. A profile is a WatcherConfig with
// input_dir/output_root/model_dir left blank — those are always
// supplied at the call site, since the same profile is meant to be
// reused against different directories.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ssciwr/faunanet/internal/config"
)

// Profile is the on-disk shape of an AnalyzerProfile.
type Profile struct {
	Name             string         `yaml:"name"`
	Description      string         `yaml:"description"`
	ModelName        string         `yaml:"model_name"`
	Pattern          string         `yaml:"pattern"`
	CheckTime        int            `yaml:"check_time"`
	DeleteRecordings string         `yaml:"delete_recordings"`
	Preprocessor     map[string]any `yaml:"Preprocessor"`
	Model            map[string]any `yaml:"Model"`
	Recording        map[string]any `yaml:"Recording"`
	SpeciesPredictor map[string]any `yaml:"SpeciesPredictor"`
}

func dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("profile: determine home directory: %w", err)
	}
	return filepath.Join(home, ".faunanet", "profiles"), nil
}

// Load reads ~/.faunanet/profiles/<name>.yaml.
func Load(name string) (*Profile, error) {
	profilesDir, err := dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(profilesDir, name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	return &p, nil
}

// Save writes p to ~/.faunanet/profiles/<name>.yaml, creating the
// directory if needed.
func Save(p *Profile) error {
	profilesDir, err := dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(profilesDir, 0o755); err != nil {
		return fmt.Errorf("profile: create profiles directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile: marshal %q: %w", p.Name, err)
	}
	path := filepath.Join(profilesDir, p.Name+".yaml")
	return config.AtomicWrite(path, data, 0o644)
}

// List returns the sorted names of every saved profile.
func List() []string {
	profilesDir, err := dir()
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks that a profile is well-formed enough to apply.
func Validate(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.ModelName == "" {
		return fmt.Errorf("profile %q: model_name is required", p.Name)
	}
	if p.DeleteRecordings != "" && p.DeleteRecordings != config.DeleteNever && p.DeleteRecordings != config.DeleteAlways {
		return fmt.Errorf("profile %q: delete_recordings must be %q or %q", p.Name, config.DeleteNever, config.DeleteAlways)
	}
	return nil
}

// ApplyTo overlays p onto the analyzer-specific fields of cfg, leaving
// InputDir/OutputRoot/ModelDir untouched — those are supplied by the
// caller, never by the profile.
func (p *Profile) ApplyTo(cfg config.WatcherConfig) config.WatcherConfig {
	cfg.ModelName = p.ModelName
	if p.Pattern != "" {
		cfg.Pattern = p.Pattern
	}
	if p.CheckTime != 0 {
		cfg.CheckTime = p.CheckTime
	}
	if p.DeleteRecordings != "" {
		cfg.DeleteRecordings = p.DeleteRecordings
	}
	if p.Preprocessor != nil {
		cfg.Preprocessor = p.Preprocessor
	}
	if p.Model != nil {
		cfg.Model = p.Model
	}
	if p.Recording != nil {
		cfg.Recording = p.Recording
	}
	if p.SpeciesPredictor != nil {
		cfg.SpeciesPredictor = p.SpeciesPredictor
	}
	return cfg
}
