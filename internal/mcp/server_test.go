package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ssciwr/faunanet/internal/ctlsocket"
)

// fakeDaemon serves one canned Response for every request it receives,
// standing in for the real watcher daemon this package's tools talk to.
func fakeDaemon(t *testing.T, handle ctlsocket.Handler) string {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "control.sock")
	ln, err := ctlsocket.Serve(sockPath, handle)
	if err != nil {
		t.Fatalf("serve fake daemon: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return sockPath
}

func newTestServer(t *testing.T, sockPath string) *Server {
	t.Helper()
	s, err := New(Config{SocketPath: sockPath})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestHandleStatus(t *testing.T) {
	sockPath := fakeDaemon(t, func(req ctlsocket.Request) ctlsocket.Response {
		if req.Op != "status" {
			t.Errorf("op = %q, want status", req.Op)
		}
		data, _ := json.Marshal(StatusOutput{Running: true, ModelName: "birdnet_default"})
		return ctlsocket.Response{Result: data}
	})
	s := newTestServer(t, sockPath)

	_, out, err := s.handleStatus(context.Background(), &mcpsdk.CallToolRequest{}, StatusInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Running || out.ModelName != "birdnet_default" {
		t.Fatalf("unexpected status: %+v", out)
	}
}

func TestHandlePauseSuccess(t *testing.T) {
	sockPath := fakeDaemon(t, func(req ctlsocket.Request) ctlsocket.Response {
		return ctlsocket.Response{Result: json.RawMessage(`{}`)}
	})
	s := newTestServer(t, sockPath)

	result, out, err := s.handlePause(context.Background(), &mcpsdk.CallToolRequest{}, controlInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success result")
	}
	if !out.OK {
		t.Fatal("expected OK=true")
	}
}

func TestHandleStopDaemonError(t *testing.T) {
	sockPath := fakeDaemon(t, func(req ctlsocket.Request) ctlsocket.Response {
		return ctlsocket.Response{Error: "watcher is not running"}
	})
	s := newTestServer(t, sockPath)

	result, out, err := s.handleStop(context.Background(), &mcpsdk.CallToolRequest{}, controlInput{})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result")
	}
	if out.OK || out.Error != "watcher is not running" {
		t.Fatalf("unexpected control output: %+v", out)
	}
}

func TestHandleChangeAnalyzer(t *testing.T) {
	var gotArgs ChangeAnalyzerInput
	sockPath := fakeDaemon(t, func(req ctlsocket.Request) ctlsocket.Response {
		if req.Op != "change_analyzer" {
			t.Errorf("op = %q, want change_analyzer", req.Op)
		}
		if err := json.Unmarshal(req.Args, &gotArgs); err != nil {
			t.Fatalf("decode args: %v", err)
		}
		return ctlsocket.Response{Result: json.RawMessage(`{}`)}
	})
	s := newTestServer(t, sockPath)

	_, out, err := s.handleChangeAnalyzer(context.Background(), &mcpsdk.CallToolRequest{}, ChangeAnalyzerInput{ModelName: "birdnet_custom"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK {
		t.Fatal("expected OK=true")
	}
	if gotArgs.ModelName != "birdnet_custom" {
		t.Fatalf("daemon received model_name %q", gotArgs.ModelName)
	}
}

func TestHandleCleanup(t *testing.T) {
	sockPath := fakeDaemon(t, func(req ctlsocket.Request) ctlsocket.Response {
		data, _ := json.Marshal(CleanupOutput{Reconciled: []string{"/tmp/run1"}, FilesWritten: 3})
		return ctlsocket.Response{Result: data}
	})
	s := newTestServer(t, sockPath)

	_, out, err := s.handleCleanup(context.Background(), &mcpsdk.CallToolRequest{}, CleanupInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FilesWritten != 3 || len(out.Reconciled) != 1 {
		t.Fatalf("unexpected cleanup output: %+v", out)
	}
}

func TestServerRejectsMissingSocketPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error when SocketPath is empty")
	}
}
