package supervisor

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ssciwr/faunanet/internal/config"
)

// workerHandoff is what the supervisor passes the re-exec'd worker
// process: a value copy of the WatcherConfig (never a shared in-memory
// reference, per §4.2 step 1) plus the RunOutput directory it writes
// into.
type workerHandoff struct {
	Cfg        config.WatcherConfig `json:"cfg"`
	OutputDir  string               `json:"output_dir"`
	UsePolling bool                 `json:"use_polling"`
}

// writeHandoff serializes the handoff document to path, the file the
// child process is told to read via its first argument.
func writeHandoff(path string, cfg config.WatcherConfig, outputDir string, usePolling bool) error {
	data, err := json.Marshal(workerHandoff{Cfg: cfg, OutputDir: outputDir, UsePolling: usePolling})
	if err != nil {
		return fmt.Errorf("supervisor: marshal worker handoff: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ReadHandoff is called from RunWorker, the body of the __worker
// subcommand, to recover the configuration the supervisor spawned it with.
func ReadHandoff(path string) (cfg config.WatcherConfig, outputDir string, usePolling bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.WatcherConfig{}, "", false, fmt.Errorf("supervisor: read worker handoff: %w", err)
	}
	var h workerHandoff
	if err := json.Unmarshal(data, &h); err != nil {
		return config.WatcherConfig{}, "", false, fmt.Errorf("supervisor: parse worker handoff: %w", err)
	}
	return h.Cfg, h.OutputDir, h.UsePolling, nil
}
