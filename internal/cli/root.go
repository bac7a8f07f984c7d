package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "faunanet",
	Short: "Acoustic monitoring watcher: supervises a model-driven analysis loop over a directory of recordings",
	Long: `faunanet watches a directory of audio recordings and classifies each
new file with a pluggable analyzer model, writing per-file detections
into a timestamped output directory.

A long-running daemon owns the watcher; start/pause/resume/stop/
restart/change-analyzer/status/cleanup are thin commands that talk to
it over a local control socket.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
