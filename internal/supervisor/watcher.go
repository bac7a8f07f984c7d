// Package supervisor implements the watcher supervisor and control
// plane (§4.1): start, pause, go_on, stop, restart, change_analyzer,
// and clean_up. The supervisor never analyzes a file itself — it owns
// the RunOutput lifecycle and the two cross-process signals that gate
// the worker process it spawns.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ssciwr/faunanet/internal/analyzer"
	"github.com/ssciwr/faunanet/internal/catalog"
	"github.com/ssciwr/faunanet/internal/config"
	"github.com/ssciwr/faunanet/internal/events"
	"github.com/ssciwr/faunanet/internal/results"
)

// defaultStopTimeout is how long stop() waits for done_analyzing before
// proceeding to terminate the worker anyway, and separately how long it
// waits for SIGTERM to take effect before escalating to SIGKILL.
const defaultStopTimeout = 30 * time.Second

// Watcher is the supervisor for one acoustic monitoring configuration.
// It is safe for concurrent use; every control operation holds mu for
// its duration.
type Watcher struct {
	mu sync.Mutex

	cfg       config.WatcherConfig
	outputDir string
	oldOutput string

	worker     *workerProc
	mayWorkSet bool

	exePath     string
	stateRoot   string
	usePolling  bool
	stopTimeout time.Duration

	events *events.Log
}

// New returns a Watcher for cfg, not yet running. exePath is the
// executable re-exec'd as the worker process (normally os.Args[0]);
// stateRoot is scratch space for per-run handoff files, separate from
// any RunOutput directory.
func New(cfg config.WatcherConfig, exePath, stateRoot string, log *events.Log) *Watcher {
	return &Watcher{
		cfg:         cfg,
		exePath:     exePath,
		stateRoot:   stateRoot,
		stopTimeout: defaultStopTimeout,
		events:      log,
	}
}

// SetUsePolling forces the polling FileEventSource fallback for every
// worker this Watcher spawns, per the REDESIGN FLAGS' unreliable-
// filesystem escape hatch.
func (w *Watcher) SetUsePolling(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.usePolling = v
}

// SetStopTimeout overrides the 30-second default grace window stop()
// gives the worker before escalating to SIGKILL.
func (w *Watcher) SetStopTimeout(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTimeout = d
}

// Status is a point-in-time snapshot of the watcher's observable state,
// the basis for `faunanet status` and the MCP status tool.
type Status struct {
	Running         bool   `json:"running"`
	Sleeping        bool   `json:"sleeping"`
	OutputDirectory string `json:"output_directory,omitempty"`
	OldOutput       string `json:"old_output,omitempty"`
	InputDirectory  string `json:"input_directory,omitempty"`
	ModelName       string `json:"model_name,omitempty"`
}

func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:         w.worker != nil,
		Sleeping:        w.worker != nil && !w.mayWorkSet,
		OutputDirectory: w.outputDir,
		OldOutput:       w.oldOutput,
		InputDirectory:  w.cfg.InputDir,
		ModelName:       w.cfg.ModelName,
	}
}

// Start creates a new RunOutput directory, writes its config.yml
// snapshot, and spawns a worker process with may_work set and
// done_analyzing cleared. Any failure after the output directory is
// created removes it, leaving the watcher in the same not-running
// state it was in before the call (§4.1 step 6).
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.startLocked()
}

func (w *Watcher) startLocked() error {
	if w.worker != nil {
		return &ControlStateError{Op: "start", Reason: "watcher is already running"}
	}

	outputDir := filepath.Join(w.cfg.OutputRoot, time.Now().Format("060102_150405"))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("start: create output directory: %w", err)
	}

	snap := config.NewSnapshot(w.cfg, outputDir)
	if err := config.WriteSnapshot(outputDir, snap); err != nil {
		os.RemoveAll(outputDir)
		return fmt.Errorf("start: write config snapshot: %w", err)
	}

	handoff := workerHandoff{Cfg: w.cfg, OutputDir: outputDir, UsePolling: w.usePolling}
	wp, err := spawnWorker(context.Background(), w.exePath, w.stateDirFor(outputDir), handoff)
	if err != nil {
		os.RemoveAll(outputDir)
		return fmt.Errorf("start: spawn worker: %w", err)
	}

	wp.done.Clear()
	if err := wp.mayWork.Send(true); err != nil {
		_ = wp.terminateAndJoin(w.stopTimeout)
		wp.closePipes()
		os.RemoveAll(outputDir)
		return fmt.Errorf("start: signal may_work: %w", err)
	}

	w.worker = wp
	w.mayWorkSet = true
	w.outputDir = outputDir
	w.logEvent("start", map[string]any{"output": outputDir, "model_name": w.cfg.ModelName})
	return nil
}

// Pause waits for the worker to finish whatever file it is currently
// analyzing, then clears may_work so it idles on its next file. There
// is no timeout: a pause that waits forever on a stuck analysis is the
// expected, diagnosable failure mode, not one this call papers over.
func (w *Watcher) Pause() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worker == nil {
		return &ControlStateError{Op: "pause", Reason: "watcher is not running"}
	}
	if err := w.worker.done.Wait(context.Background()); err != nil {
		return fmt.Errorf("pause: wait for done_analyzing: %w", err)
	}
	if err := w.worker.mayWork.Send(false); err != nil {
		return fmt.Errorf("pause: clear may_work: %w", err)
	}
	w.mayWorkSet = false
	w.logEvent("pause", nil)
	return nil
}

// Resume (go_on) sets may_work again. It is idempotent: resuming a
// watcher that was never paused just re-sends the flag it already held.
func (w *Watcher) Resume() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worker == nil {
		return &ControlStateError{Op: "go_on", Reason: "watcher is not running"}
	}
	if err := w.worker.mayWork.Send(true); err != nil {
		return fmt.Errorf("go_on: set may_work: %w", err)
	}
	w.mayWorkSet = true
	w.logEvent("go_on", nil)
	return nil
}

// Stop waits up to the configured grace window for done_analyzing,
// warns and proceeds if it times out, then sends SIGTERM and escalates
// to SIGKILL if the worker does not exit within the same window.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopLocked()
}

func (w *Watcher) stopLocked() error {
	if w.worker == nil {
		return &ControlStateError{Op: "stop", Reason: "watcher is not running"}
	}
	wp := w.worker

	ctx, cancel := context.WithTimeout(context.Background(), w.stopTimeout)
	if err := wp.done.Wait(ctx); err != nil {
		w.logEvent("stop_timeout", map[string]any{"reason": "done_analyzing wait timed out, proceeding"})
	}
	cancel()

	if err := wp.terminateAndJoin(w.stopTimeout); err != nil {
		wp.closePipes()
		w.worker = nil
		w.mayWorkSet = false
		return fmt.Errorf("Something went wrong when trying to stop the watcher process: %w", err)
	}
	wp.closePipes()

	w.worker = nil
	w.mayWorkSet = false
	w.logEvent("stop", map[string]any{"output": w.outputDir})
	return nil
}

// Restart is stop() followed immediately by start(), reusing the same
// WatcherConfig and therefore opening a fresh RunOutput directory.
func (w *Watcher) Restart() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.restartLocked()
}

func (w *Watcher) restartLocked() error {
	if w.worker != nil {
		if err := w.stopLocked(); err != nil {
			return fmt.Errorf("restart: %w", err)
		}
	}
	return w.startLocked()
}

// ChangeAnalyzerParams is everything change_analyzer may overwrite in
// the live WatcherConfig. Zero-valued fields leave the current value in
// place; ModelName must always be supplied and name an existing
// subdirectory of model_dir.
type ChangeAnalyzerParams struct {
	ModelName        string         `json:"model_name"`
	Preprocessor     map[string]any `json:"preprocessor,omitempty"`
	Model            map[string]any `json:"model,omitempty"`
	Recording        map[string]any `json:"recording,omitempty"`
	SpeciesPredictor map[string]any `json:"species_predictor,omitempty"`
	Pattern          string         `json:"pattern,omitempty"`
	CheckTime        int            `json:"check_time,omitempty"`
	DeleteRecordings string         `json:"delete_recordings,omitempty"`
}

// ChangeAnalyzer swaps the live configuration's model (and any of the
// four opaque config blocks supplied) and restarts the worker against
// it. If the restart fails, every field is rolled back to its pre-swap
// value and the error is wrapped in SwapRollbackError. On success the
// pre-swap RunOutput is sealed with a batch manifest listing the inputs
// it covered (§4.1 step 7).
func (w *Watcher) ChangeAnalyzer(params ChangeAnalyzerParams) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worker == nil {
		return &ControlStateError{Op: "change_analyzer", Reason: "watcher is not running"}
	}
	if !w.mayWorkSet {
		return &ControlStateError{Op: "change_analyzer", Reason: "watcher is paused"}
	}
	if params.ModelName == "" {
		return &ControlStateError{Op: "change_analyzer", Reason: "model_name must not be empty"}
	}
	modelSubdir := filepath.Join(w.cfg.ModelDir, params.ModelName)
	if info, err := os.Stat(modelSubdir); err != nil || !info.IsDir() {
		return &ControlStateError{Op: "change_analyzer", Reason: fmt.Sprintf("no subdirectory %q under model_dir", params.ModelName)}
	}

	prior := w.cfg.Clone()
	priorOutput := w.outputDir

	next := w.cfg.Clone()
	next.ModelName = params.ModelName
	if params.Preprocessor != nil {
		next.Preprocessor = params.Preprocessor
	}
	if params.Model != nil {
		next.Model = params.Model
	}
	if params.Recording != nil {
		next.Recording = params.Recording
	}
	if params.SpeciesPredictor != nil {
		next.SpeciesPredictor = params.SpeciesPredictor
	}
	if params.Pattern != "" {
		next.Pattern = params.Pattern
	}
	if params.CheckTime != 0 {
		next.CheckTime = params.CheckTime
	}
	if params.DeleteRecordings != "" {
		next.DeleteRecordings = params.DeleteRecordings
	}

	w.cfg = next
	if err := w.restartLocked(); err != nil {
		w.cfg = prior
		w.outputDir = ""
		w.mayWorkSet = false
		w.logEvent("change_analyzer_rollback", map[string]any{"error": err.Error()})
		return &SwapRollbackError{Cause: err}
	}

	w.oldOutput = priorOutput
	if priorOutput != "" {
		if err := w.sealPriorOutput(priorOutput, prior); err != nil {
			return fmt.Errorf("Error when cleaning up data after analyzer change: %w", err)
		}
		w.reindexCatalog(priorOutput)
	}

	w.logEvent("change_analyzer", map[string]any{"model_name": params.ModelName, "old_output": priorOutput, "output": w.outputDir})
	return nil
}

// sealPriorOutput writes the batch manifest change_analyzer's step 7
// requires: one line per input the sealed run is believed to have
// covered, reconstructed from the results files it actually wrote.
func (w *Watcher) sealPriorOutput(outputDir string, cfg config.WatcherConfig) error {
	stems, err := listResultStems(outputDir)
	if err != nil {
		return fmt.Errorf("list results in %s: %w", outputDir, err)
	}
	inputs := make([]string, len(stems))
	for i, stem := range stems {
		inputs[i] = filepath.Join(cfg.InputDir, stem+cfg.Pattern)
	}
	batchName := fmt.Sprintf("batch_%s.txt", filepath.Base(outputDir))
	if err := results.WriteBatchManifest(outputDir, batchName, inputs); err != nil {
		return err
	}
	// Seal the directory the same way clean_up() does, so a later
	// clean_up pass does not try to reconcile a run that stopped
	// normally rather than crashing mid-analysis.
	return results.WriteMissings(outputDir, nil)
}

func listResultStems(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}
	var stems []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "results_") || !strings.HasSuffix(name, ".csv") {
			continue
		}
		stems = append(stems, strings.TrimSuffix(strings.TrimPrefix(name, "results_"), ".csv"))
	}
	return stems, nil
}

// CleanupReport summarizes one clean_up() pass.
type CleanupReport struct {
	Reconciled   []string `json:"reconciled,omitempty"`
	Failed       []string `json:"failed,omitempty"`
	FilesWritten int      `json:"files_written"`
	Missing      []string `json:"missing,omitempty"`
}

// CleanUp reconciles every sibling RunOutput under output_root that is
// neither the currently active run nor already sealed with
// missings.txt: for each input file lacking a results_<stem>.csv, it
// re-analyzes and writes one, then seals the folder with missings.txt
// listing the inputs this pass reconciled. An input whose analysis or
// results write fails is skipped and not listed.
func (w *Watcher) CleanUp() (CleanupReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := os.ReadDir(w.cfg.OutputRoot)
	if err != nil {
		return CleanupReport{}, fmt.Errorf("clean_up: list output_root: %w", err)
	}

	var eligible []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(w.cfg.OutputRoot, e.Name())
		if dir == w.outputDir && w.worker != nil {
			w.logEvent("clean_up_skip", map[string]any{"dir": dir, "reason": "currently active"})
			continue
		}
		if results.IsSealed(dir) {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, "config.yml")); err != nil {
			continue
		}
		eligible = append(eligible, dir)
	}

	if len(eligible) == 0 {
		return CleanupReport{}, &CleanupError{Reason: "No output folders found to clean up"}
	}

	report := CleanupReport{}
	for _, dir := range eligible {
		written, missing, err := w.reconcileOutputDir(dir)
		if err != nil {
			w.logEvent("clean_up_error", map[string]any{"dir": dir, "error": err.Error()})
			report.Failed = append(report.Failed, dir)
			continue
		}
		report.Reconciled = append(report.Reconciled, dir)
		report.FilesWritten += written
		report.Missing = append(report.Missing, missing...)
		w.reindexCatalog(dir)
	}
	w.logEvent("clean_up", map[string]any{"reconciled": report.Reconciled, "failed": report.Failed})
	return report, nil
}

func (w *Watcher) reconcileOutputDir(dir string) (written int, missing []string, err error) {
	snap, err := config.ReadSnapshot(dir)
	if err != nil {
		return 0, nil, fmt.Errorf("read config.yml: %w", err)
	}
	cfg := snap.ToWatcherConfig()

	rec, err := analyzer.Build(analyzer.FactoryParams{
		ModelDir:         cfg.ModelDir,
		ModelName:        cfg.ModelName,
		Preprocessor:     cfg.Preprocessor,
		Model:            cfg.Model,
		Recording:        cfg.Recording,
		SpeciesPredictor: cfg.SpeciesPredictor,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("build analyzer: %w", err)
	}

	dirEntries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return 0, nil, fmt.Errorf("list input_dir %s: %w", cfg.InputDir, err)
	}

	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), cfg.Pattern) {
			continue
		}
		path := filepath.Join(cfg.InputDir, e.Name())
		stem := results.StemFor(path)
		if results.HasResult(dir, stem) {
			continue
		}

		rec.SetPath(path)
		if aerr := rec.Analyze(); aerr != nil {
			continue
		}
		if werr := results.Write(dir, stem, rec.Detections()); werr != nil {
			continue
		}
		written++
		missing = append(missing, path)
		if cfg.DeleteRecordings == config.DeleteAlways {
			_ = os.Remove(path)
		}
	}

	if err := results.WriteMissings(dir, missing); err != nil {
		return written, missing, fmt.Errorf("write missings.txt: %w", err)
	}
	return written, missing, nil
}

func (w *Watcher) stateDirFor(outputDir string) string {
	return filepath.Join(w.stateRoot, filepath.Base(outputDir))
}

// catalogPath is where the derived cross-run SQLite index lives for
// this configuration's output_root. It is always safe to delete and
// rebuild from the results_*.csv files it indexes.
func (w *Watcher) catalogPath() string {
	return filepath.Join(w.cfg.OutputRoot, "catalog.sqlite")
}

// reindexCatalog refreshes catalog.sqlite's rows for one RunOutput
// directory from its results_*.csv files. Best-effort: a failure here
// never fails the caller's control operation, since the csvs remain
// authoritative regardless of whether the derived index is current.
func (w *Watcher) reindexCatalog(outputDir string) {
	store, err := catalog.Open(w.catalogPath())
	if err != nil {
		w.logEvent("catalog_reindex_error", map[string]any{"dir": outputDir, "error": err.Error()})
		return
	}
	defer store.Close()
	if err := store.RebuildRunOutput(context.Background(), outputDir); err != nil {
		w.logEvent("catalog_reindex_error", map[string]any{"dir": outputDir, "error": err.Error()})
	}
}

func (w *Watcher) logEvent(typ string, detail map[string]any) {
	if w.events == nil {
		return
	}
	_ = w.events.Record(typ, detail)
}
