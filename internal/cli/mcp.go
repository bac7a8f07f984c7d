package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP tool server exposing the watcher control plane",
	Long:  "Runs faunanet as an MCP (Model Context Protocol) server over stdio.\nExposes watcher_status/pause/resume/stop/change_analyzer/cleanup as thin clients of the running daemon's control socket.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	sockPath, err := socketPath()
	if err != nil {
		return err
	}

	srv, err := mcp.New(mcp.Config{SocketPath: sockPath})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintln(os.Stderr, "faunanet MCP server running on stdio")
	return srv.Run(ctx)
}
