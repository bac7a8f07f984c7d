package ctlsocket

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestServeAndCallRoundTrip(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "control.sock")

	ln, err := Serve(sockPath, func(req Request) Response {
		if req.Op != "status" {
			return Response{Error: "unknown op"}
		}
		result, _ := json.Marshal(map[string]bool{"running": true})
		return Response{Result: result}
	})
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	defer ln.Close()

	resp, err := Call(sockPath, "status", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}

	var out map[string]bool
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !out["running"] {
		t.Fatal("expected running=true")
	}
}

func TestServeReturnsHandlerError(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "control.sock")

	ln, err := Serve(sockPath, func(req Request) Response {
		return Response{Error: "watcher is not running"}
	})
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	defer ln.Close()

	resp, err := Call(sockPath, "pause", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Error != "watcher is not running" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
