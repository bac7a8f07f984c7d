package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ssciwr/faunanet/internal/analyzer"
	"github.com/ssciwr/faunanet/internal/config"
	"github.com/ssciwr/faunanet/internal/signalpipe"
)

type fakeRecording struct {
	path       string
	analyzed   bool
	detections []analyzer.Detection
}

func (f *fakeRecording) Path() string                     { return f.path }
func (f *fakeRecording) SetPath(p string)                 { f.path = p; f.analyzed = false }
func (f *fakeRecording) Analyzed() bool                   { return f.analyzed }
func (f *fakeRecording) Detections() []analyzer.Detection { return f.detections }
func (f *fakeRecording) Analyze() error {
	f.analyzed = true
	f.detections = []analyzer.Detection{{"label": "test_species", "confidence": 0.5}}
	return nil
}

const testModelName = "worker_test_model"

func init() {
	analyzer.Register(testModelName, func(p analyzer.FactoryParams) (analyzer.Recording, error) {
		return &fakeRecording{}, nil
	})
}

func TestHandleRunsCriticalSectionInOrder(t *testing.T) {
	modelDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(modelDir, testModelName), 0o755); err != nil {
		t.Fatal(err)
	}
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	inputFile := filepath.Join(inputDir, "example_0.wav")
	if err := os.WriteFile(inputFile, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := analyzer.Build(analyzer.FactoryParams{ModelDir: modelDir, ModelName: testModelName})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	mayWork := signalpipe.New()
	mayWork.Set()
	done := signalpipe.New()

	cfg := Config{
		Cfg:       config.WatcherConfig{InputDir: inputDir, Pattern: ".wav", DeleteRecordings: config.DeleteNever},
		OutputDir: outputDir,
		MayWork:   mayWork,
		Done:      done,
	}

	if err := cfg.handle(context.Background(), rec, inputFile); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if !done.IsSet() {
		t.Fatal("expected done_analyzing set after handle returns")
	}
	if _, err := os.Stat(filepath.Join(outputDir, "results_example_0.csv")); err != nil {
		t.Fatalf("expected results csv written: %v", err)
	}
	if _, err := os.Stat(inputFile); err != nil {
		t.Fatalf("expected input retained under delete_recordings=never: %v", err)
	}
}

func TestHandleDeletesInputWhenConfigured(t *testing.T) {
	modelDir := t.TempDir()
	os.MkdirAll(filepath.Join(modelDir, testModelName), 0o755)
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	inputFile := filepath.Join(inputDir, "example_1.wav")
	os.WriteFile(inputFile, []byte("audio"), 0o644)

	rec, _ := analyzer.Build(analyzer.FactoryParams{ModelDir: modelDir, ModelName: testModelName})
	mayWork := signalpipe.New()
	mayWork.Set()

	cfg := Config{
		Cfg:       config.WatcherConfig{InputDir: inputDir, Pattern: ".wav", DeleteRecordings: config.DeleteAlways},
		OutputDir: outputDir,
		MayWork:   mayWork,
		Done:      signalpipe.New(),
	}

	if err := cfg.handle(context.Background(), rec, inputFile); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := os.Stat(inputFile); !os.IsNotExist(err) {
		t.Fatalf("expected input deleted under delete_recordings=always")
	}
}

func TestHandleBlocksOnMayWork(t *testing.T) {
	modelDir := t.TempDir()
	os.MkdirAll(filepath.Join(modelDir, testModelName), 0o755)
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	inputFile := filepath.Join(inputDir, "example_2.wav")
	os.WriteFile(inputFile, []byte("audio"), 0o644)

	rec, _ := analyzer.Build(analyzer.FactoryParams{ModelDir: modelDir, ModelName: testModelName})
	mayWork := signalpipe.New() // cleared

	cfg := Config{
		Cfg:       config.WatcherConfig{InputDir: inputDir, Pattern: ".wav"},
		OutputDir: outputDir,
		MayWork:   mayWork,
		Done:      signalpipe.New(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := cfg.handle(ctx, rec, inputFile); err != nil {
		t.Fatalf("expected cancellation to return nil, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "results_example_2.csv")); err == nil {
		t.Fatal("expected no results written while may_work never set")
	}
}
