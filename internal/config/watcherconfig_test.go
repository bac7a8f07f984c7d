package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setupModelDir(t *testing.T) (modelDir, modelName string) {
	t.Helper()
	root := t.TempDir()
	modelName = "birdnet_default"
	if err := os.MkdirAll(filepath.Join(root, modelName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return root, modelName
}

func TestNewRejectsMissingInputDir(t *testing.T) {
	modelDir, modelName := setupModelDir(t)
	outputRoot := t.TempDir()
	_, err := New(WatcherConfig{
		InputDir:   filepath.Join(outputRoot, "does-not-exist"),
		OutputRoot: outputRoot,
		ModelDir:   modelDir,
		ModelName:  modelName,
	})
	if err == nil {
		t.Fatal("expected error for missing input_dir")
	}
	var cerr *ConfigurationError
	if !asConfigurationError(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if cerr.Field != "input_dir" {
		t.Fatalf("expected field input_dir, got %s", cerr.Field)
	}
}

func TestNewRejectsUnknownModelName(t *testing.T) {
	modelDir, _ := setupModelDir(t)
	inputDir := t.TempDir()
	outputRoot := t.TempDir()
	_, err := New(WatcherConfig{
		InputDir:   inputDir,
		OutputRoot: outputRoot,
		ModelDir:   modelDir,
		ModelName:  "does-not-exist",
	})
	if err == nil {
		t.Fatal("expected error for unknown model_name")
	}
}

func TestNewRejectsBadDeleteRecordings(t *testing.T) {
	modelDir, modelName := setupModelDir(t)
	inputDir := t.TempDir()
	outputRoot := t.TempDir()
	_, err := New(WatcherConfig{
		InputDir:         inputDir,
		OutputRoot:       outputRoot,
		ModelDir:         modelDir,
		ModelName:        modelName,
		DeleteRecordings: "sometimes",
	})
	if err == nil {
		t.Fatal("expected error for invalid delete_recordings")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	modelDir, modelName := setupModelDir(t)
	inputDir := t.TempDir()
	outputRoot := t.TempDir()
	cfg, err := New(WatcherConfig{
		InputDir:   inputDir,
		OutputRoot: outputRoot,
		ModelDir:   modelDir,
		ModelName:  modelName,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Pattern != DefaultPattern {
		t.Errorf("expected default pattern %q, got %q", DefaultPattern, cfg.Pattern)
	}
	if cfg.CheckTime != DefaultCheckTime {
		t.Errorf("expected default check_time %d, got %d", DefaultCheckTime, cfg.CheckTime)
	}
	if cfg.DeleteRecordings != DeleteNever {
		t.Errorf("expected default delete_recordings %q, got %q", DeleteNever, cfg.DeleteRecordings)
	}
}

func TestCloneDoesNotAliasMaps(t *testing.T) {
	cfg := WatcherConfig{Model: map[string]any{"a": 1}}
	clone := cfg.Clone()
	clone.Model["a"] = 2
	if cfg.Model["a"] != 1 {
		t.Fatal("Clone aliased the Model map")
	}
}

func asConfigurationError(err error, target **ConfigurationError) bool {
	ce, ok := err.(*ConfigurationError)
	if ok {
		*target = ce
	}
	return ok
}
