package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// analysisSnapshot is the "Analysis" root of config.yml, §6.
type analysisSnapshot struct {
	Input            string         `yaml:"input"`
	Output           string         `yaml:"output"`
	CheckTime        int            `yaml:"check_time"`
	DeleteRecordings string         `yaml:"delete_recordings"`
	Pattern          string         `yaml:"pattern"`
	ModelName        string         `yaml:"model_name"`
	ModelDir         string         `yaml:"model_dir"`
	Preprocessor     map[string]any `yaml:"Preprocessor"`
	Model            map[string]any `yaml:"Model"`
	Recording        map[string]any `yaml:"Recording"`
	SpeciesPredictor map[string]any `yaml:"SpeciesPredictor"`
}

// Snapshot is the document written as config.yml.
type Snapshot struct {
	Analysis analysisSnapshot `yaml:"Analysis"`
}

// NewSnapshot builds the config.yml document for cfg at the moment its
// RunOutput directory outputDir is created.
func NewSnapshot(cfg WatcherConfig, outputDir string) Snapshot {
	model := cloneMap(cfg.Model)
	model["name"] = cfg.ModelName
	return Snapshot{Analysis: analysisSnapshot{
		Input:            cfg.InputDir,
		Output:           outputDir,
		CheckTime:        cfg.CheckTime,
		DeleteRecordings: cfg.DeleteRecordings,
		Pattern:          cfg.Pattern,
		ModelName:        cfg.ModelName,
		ModelDir:         cfg.ModelDir,
		Preprocessor:     cloneMap(cfg.Preprocessor),
		Model:            model,
		Recording:        cloneMap(cfg.Recording),
		SpeciesPredictor: cloneMap(cfg.SpeciesPredictor),
	}}
}

// WriteSnapshot atomically writes config.yml to outputDir (write to a
// temp file, then rename, so a reader never observes a partial file).
func WriteSnapshot(outputDir string, snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal config.yml: %w", err)
	}
	return atomicWrite(filepath.Join(outputDir, "config.yml"), data, 0o644)
}

// ReadSnapshot reads and parses an existing RunOutput's config.yml, as
// the clean-up reconciler does for every sibling folder it considers.
func ReadSnapshot(outputDir string) (Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, "config.yml"))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read config.yml: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse config.yml: %w", err)
	}
	return snap, nil
}

// ToWatcherConfig rebuilds a usable WatcherConfig from a recorded
// snapshot — used by clean_up() to reconstruct the RecordingFactory
// inputs for a sealed or unsealed sibling folder.
func (s Snapshot) ToWatcherConfig() WatcherConfig {
	a := s.Analysis
	return WatcherConfig{
		InputDir:         a.Input,
		ModelDir:         a.ModelDir,
		ModelName:        a.ModelName,
		Pattern:          a.Pattern,
		CheckTime:        a.CheckTime,
		DeleteRecordings: a.DeleteRecordings,
		Preprocessor:     cloneMap(a.Preprocessor),
		Model:            cloneMap(a.Model),
		Recording:        cloneMap(a.Recording),
		SpeciesPredictor: cloneMap(a.SpeciesPredictor),
	}
}

// atomicWrite writes to path via a sibling .tmp file and os.Rename, the
// write pattern used throughout for every file the watcher or worker
// produces (config.yml, results_*.csv, missings.txt).
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// AtomicWrite exposes atomicWrite to other packages (results, profile)
// that need the same create-then-rename guarantee.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	return atomicWrite(path, data, perm)
}
