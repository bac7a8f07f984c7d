// Package events is the watcher's lifecycle log: one JSONL line per
// control-plane transition (start, pause, resume, stop, swap, clean-up).
// It is an operational log, not a tamper-evidence ledger — there is one
// operator process here, not the multi-tenant audit boundary the
// teacher's hash-chained audit log defends.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded watcher transition.
type Entry struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"run_id"`
	Type      string         `json:"type"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Log is an append-only JSONL file opened for the lifetime of a
// supervisor process.
type Log struct {
	path string
	file *os.File
	runID string
	mu   sync.Mutex
}

// Open opens (or creates) the event log at path, appending to it if it
// already exists.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("events: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("events: open file: %w", err)
	}
	return &Log{path: path, file: file, runID: uuid.NewString()}, nil
}

// Record appends one Entry, stamping Timestamp and RunID if unset, and
// fsyncs so the line survives a crash immediately after a transition.
func (l *Log) Record(typ string, detail map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     l.runID,
		Type:      typ,
		Detail:    detail,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("events: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("events: write entry: %w", err)
	}
	return l.file.Sync()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
