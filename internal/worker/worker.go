// Package worker implements WorkerLoop (§4.2): the body of the child
// process the supervisor spawns. It builds a Recording via the
// analyzer registry, wires a FileEventSource, and runs the per-file
// critical section described in §4.2 — may_work.wait, analyze, write
// results, done_analyzing.set, optional deletion — with handlers
// dispatched strictly one at a time.
package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/ssciwr/faunanet/internal/analyzer"
	"github.com/ssciwr/faunanet/internal/config"
	"github.com/ssciwr/faunanet/internal/eventsource"
	"github.com/ssciwr/faunanet/internal/results"
	"github.com/ssciwr/faunanet/internal/signalpipe"
)

// Config bundles everything the worker process needs at spawn. Cfg is
// a value copy of the supervisor's WatcherConfig (never a shared
// reference — §4.2 step 1), taken at the moment the process was
// spawned.
type Config struct {
	Cfg        config.WatcherConfig
	OutputDir  string
	MayWork    *signalpipe.Signal // mirrors the supervisor's may_work
	Done       *signalpipe.Signal // this process's local done_analyzing
	DoneSender *signalpipe.Sender // forwards Done transitions to the supervisor
	Faults     *signalpipe.FaultSender
	UsePolling bool
}

// Run builds the Recording and watches Cfg.InputDir for newly created
// files until ctx is cancelled or a fatal error occurs. It never scans
// for files already present at startup — only files created after the
// watch is established are analyzed, matching the original watcher's
// watchdog.Observer, which reacts to filesystem events raised after
// scheduling and never walks the existing directory tree. A handler
// failure is fatal: it is reported to Faults as an AnalysisError, the
// watch stops, and Run returns it. A non-nil return value means the
// worker should exit non-zero. Run reports construction and handler
// failures to Faults itself; an event-source failure is only returned.
func Run(ctx context.Context, cfg Config) error {
	rec, err := analyzer.Build(analyzer.FactoryParams{
		ModelDir:         cfg.Cfg.ModelDir,
		ModelName:        cfg.Cfg.ModelName,
		Preprocessor:     cfg.Cfg.Preprocessor,
		Model:            cfg.Cfg.Model,
		Recording:        cfg.Cfg.Recording,
		SpeciesPredictor: cfg.Cfg.SpeciesPredictor,
	})
	if err != nil {
		cfg.reportFault("WorkerConstructionError", err.Error(), true)
		return fmt.Errorf("worker: construct recording: %w", err)
	}

	src := &eventsource.Source{Dir: cfg.Cfg.InputDir, Pattern: cfg.Cfg.Pattern, UsePolling: cfg.UsePolling}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var fatal error
	handle := func(path string) {
		if runCtx.Err() != nil {
			return
		}
		if herr := cfg.handle(runCtx, rec, path); herr != nil {
			cfg.reportFault("AnalysisError", herr.Error(), true)
			fatal = herr
			cancel()
		}
	}

	if err := src.Run(runCtx, handle); err != nil {
		return fmt.Errorf("worker: event source: %w", err)
	}
	if fatal != nil {
		return fmt.Errorf("worker: %w", fatal)
	}
	return nil
}

// handle is the critical section of §4.2: the exact sequence a single
// input file goes through, run serially with every other file.
func (cfg Config) handle(ctx context.Context, rec analyzer.Recording, path string) error {
	if err := cfg.MayWork.Wait(ctx); err != nil {
		return nil // cancelled, not a failure
	}

	rec.SetPath(path)

	cfg.Done.Clear()
	if cfg.DoneSender != nil {
		_ = cfg.DoneSender.Send(false)
	}

	if err := rec.Analyze(); err != nil {
		return fmt.Errorf("analyze %s: %w", path, err)
	}

	if err := results.Write(cfg.OutputDir, results.StemFor(path), rec.Detections()); err != nil {
		return fmt.Errorf("write results for %s: %w", path, err)
	}

	cfg.Done.Set()
	if cfg.DoneSender != nil {
		_ = cfg.DoneSender.Send(true)
	}

	if cfg.Cfg.DeleteRecordings == config.DeleteAlways {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", path, err)
		}
	}
	return nil
}

func (cfg Config) reportFault(kind, message string, fatal bool) {
	if cfg.Faults == nil {
		return
	}
	_ = cfg.Faults.Send(signalpipe.Fault{Kind: kind, Message: message, Fatal: fatal})
}
