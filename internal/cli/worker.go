package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/supervisor"
)

func init() {
	rootCmd.AddCommand(workerCmd)
}

// workerCmd is never invoked directly by a user. The supervisor
// re-execs the same binary with this subcommand to become the worker
// half of the two-process model, inheriting the pipe file descriptors
// spawnWorker set up via cmd.ExtraFiles.
var workerCmd = &cobra.Command{
	Use:    "__worker <handoff-path>",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer cancel()
		return supervisor.RunWorker(ctx, args[0])
	},
}
