package events

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRecordAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := log.Record("start", map[string]any{"output": "20260730_100000"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := log.Record("stop", nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open for read: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []Entry
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		lines = append(lines, e)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lines))
	}
	if lines[0].Type != "start" || lines[1].Type != "stop" {
		t.Fatalf("unexpected entry order: %+v", lines)
	}
	if lines[0].RunID == "" || lines[0].RunID != lines[1].RunID {
		t.Fatalf("expected shared run_id across entries from one Log")
	}
}

func TestOpenAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = log1.Record("start", nil)
	_ = log1.Close()

	log2, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	_ = log2.Record("stop", nil)
	_ = log2.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := len(splitNonEmptyLines(string(data))); got != 2 {
		t.Fatalf("expected 2 lines across two opens, got %d", got)
	}
}

func splitNonEmptyLines(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == '\n' {
			if cur != "" {
				out = append(out, cur)
			}
			cur = ""
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}
