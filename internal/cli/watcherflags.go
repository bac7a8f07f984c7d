package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/config"
	"github.com/ssciwr/faunanet/internal/profile"
)

// watcherFlags are the configuration flags shared by `daemon` and
// `start` — start auto-boots the daemon with these when it isn't
// already running.
type watcherFlags struct {
	inputDir         string
	outputRoot       string
	modelDir         string
	modelName        string
	profileName      string
	pattern          string
	checkTime        int
	deleteRecordings string
	usePolling       bool
}

func addWatcherFlags(cmd *cobra.Command, f *watcherFlags) {
	cmd.Flags().StringVar(&f.inputDir, "input", "", "Directory of recordings to watch")
	cmd.Flags().StringVar(&f.outputRoot, "output", "", "Directory RunOutput folders are created under")
	cmd.Flags().StringVar(&f.modelDir, "model-dir", "", "Directory containing analyzer model subdirectories")
	cmd.Flags().StringVar(&f.modelName, "model-name", "", "Analyzer model subdirectory to use")
	cmd.Flags().StringVar(&f.profileName, "profile", "", "Named AnalyzerProfile to apply (overridden by explicit flags)")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "Input file suffix, default .wav")
	cmd.Flags().IntVar(&f.checkTime, "check-time", 0, "Poll interval in seconds, default 1")
	cmd.Flags().StringVar(&f.deleteRecordings, "delete-recordings", "", `"never" or "always", default "never"`)
	cmd.Flags().BoolVar(&f.usePolling, "use-polling", false, "Use polling instead of filesystem notifications")
}

// buildConfig resolves f into a validated WatcherConfig, applying a
// named profile first (if given) and letting explicit flags override it.
func (f *watcherFlags) buildConfig() (config.WatcherConfig, error) {
	cfg := config.WatcherConfig{
		InputDir:         f.inputDir,
		OutputRoot:       f.outputRoot,
		ModelDir:         f.modelDir,
		ModelName:        f.modelName,
		Pattern:          f.pattern,
		CheckTime:        f.checkTime,
		DeleteRecordings: f.deleteRecordings,
	}

	if f.profileName != "" {
		prof, err := profile.Load(f.profileName)
		if err != nil {
			return config.WatcherConfig{}, err
		}
		if err := profile.Validate(prof); err != nil {
			return config.WatcherConfig{}, err
		}
		base := cfg
		cfg = prof.ApplyTo(base)
		// Explicit flags still win over the profile where given.
		if f.modelName != "" {
			cfg.ModelName = f.modelName
		}
		if f.pattern != "" {
			cfg.Pattern = f.pattern
		}
		if f.checkTime != 0 {
			cfg.CheckTime = f.checkTime
		}
		if f.deleteRecordings != "" {
			cfg.DeleteRecordings = f.deleteRecordings
		}
	}

	if cfg.InputDir == "" || cfg.OutputRoot == "" || cfg.ModelDir == "" || cfg.ModelName == "" {
		return config.WatcherConfig{}, fmt.Errorf("--input, --output, --model-dir, and --model-name (or --profile) are required")
	}

	return config.New(cfg)
}
