// Package catalog is a supplemental, derived index: a SQLite database
// over every detection the watcher has ever written, queried by
// `faunanet species <label>` for cross-run detection counts. It is
// never the source of truth — results_*.csv remains authoritative
// (spec §1 Non-goals: "no database — results are per-file files in an
// output directory") — catalog.sqlite can always be deleted and rebuilt
// from those files.
//
// Grounded on Yakitrak-obsidian-cli's pkg/embeddings/sqlite/store.go:
// the same Open/EnsureSchema/database-sql-with-modernc-driver shape,
// repurposed from embedding chunks to acoustic detections.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is a handle to catalog.sqlite under one output_root.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalog database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("catalog: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	store := &Store{db: db}
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the detections table if it does not already
// exist. Idempotent, safe to call on every Open.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_output TEXT NOT NULL,
			input_stem TEXT NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			start_time REAL,
			end_time REAL,
			recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_label ON detections(label)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_run_output ON detections(run_output)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("catalog: schema: %w", err)
		}
	}
	return nil
}

// Record inserts one detection row, tying it back to the RunOutput and
// input stem it came from.
func (s *Store) Record(ctx context.Context, runOutput, inputStem, label string, confidence, start, end float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (run_output, input_stem, label, confidence, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runOutput, inputStem, label, confidence, start, end,
	)
	if err != nil {
		return fmt.Errorf("catalog: insert: %w", err)
	}
	return nil
}

// CountBySpecies returns the number of recorded detections for label
// across every run this catalog has ever indexed.
func (s *Store) CountBySpecies(ctx context.Context, label string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM detections WHERE label = ?`, label).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

// DeleteByRunOutput removes every row for a RunOutput, used when
// rebuilding the catalog for a run whose csvs changed underneath it.
func (s *Store) DeleteByRunOutput(ctx context.Context, runOutput string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM detections WHERE run_output = ?`, runOutput)
	if err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
