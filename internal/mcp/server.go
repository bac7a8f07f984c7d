// Package mcp exposes the watcher's control plane as MCP tools over
// stdio, grounded in the teacher's mcp/server.go (same SDK, same
// NewServer/AddTool/StdioTransport shape). Every tool is a thin client
// of ctlsocket — the MCP process never touches a supervisor.Watcher
// directly, since the daemon already owns the only safe handle on one.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config holds the MCP server's only dependency: where to reach the
// watcher daemon's control socket.
type Config struct {
	SocketPath string
}

// Server wraps the MCP SDK server with faunanet's watcher tools.
type Server struct {
	mcpServer  *mcpsdk.Server
	socketPath string
}

// New creates an MCP server exposing the watcher control plane.
func New(cfg Config) (*Server, error) {
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("mcp: socket path is required")
	}

	s := &Server{socketPath: cfg.SocketPath}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "faunanet",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "watcher_status",
		Description: "Report whether the watcher is running, paused, and which directory it is currently writing results into.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "watcher_pause",
		Description: "Pause the watcher after its current file finishes analyzing.",
	}, s.handlePause)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "watcher_resume",
		Description: "Resume a paused watcher.",
	}, s.handleResume)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "watcher_stop",
		Description: "Stop the watcher and terminate its worker process.",
	}, s.handleStop)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "watcher_change_analyzer",
		Description: "Swap the running watcher's analyzer model and restart it against the same input directory.",
	}, s.handleChangeAnalyzer)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "watcher_cleanup",
		Description: "Reconcile any RunOutput folders left with missing results, e.g. after a crash.",
	}, s.handleCleanup)
}
