package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ssciwr/faunanet/internal/analyzer"
)

func TestWriteEmptyDetectionsProducesSingleEmptyRow(t *testing.T) {
	dir := t.TempDir()
	if err := Write(dir, "example_0", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "results_example_0.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1 || lines[0] != "" {
		t.Fatalf("expected single empty row, got %q", string(data))
	}
}

func TestWriteDetectionsHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	dets := []analyzer.Detection{
		{"confidence": 0.9, "label": "robin"},
		{"confidence": 0.4, "label": "jay"},
	}
	if err := Write(dir, "example_1", dets); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "results_example_1.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %v", len(lines), lines)
	}
	if lines[0] != "confidence,label" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
}

func TestHasResultAndIsSealed(t *testing.T) {
	dir := t.TempDir()
	if HasResult(dir, "x") {
		t.Fatal("expected no result before write")
	}
	if err := Write(dir, "x", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !HasResult(dir, "x") {
		t.Fatal("expected result after write")
	}
	if IsSealed(dir) {
		t.Fatal("expected unsealed before WriteMissings")
	}
	if err := WriteMissings(dir, []string{"/in/a.wav"}); err != nil {
		t.Fatalf("WriteMissings: %v", err)
	}
	if !IsSealed(dir) {
		t.Fatal("expected sealed after WriteMissings")
	}
}
