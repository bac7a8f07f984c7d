package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RebuildRunOutput re-indexes every results_*.csv under outputDir into
// the catalog, replacing whatever rows previously existed for this
// RunOutput. Used when catalog.sqlite is missing or suspected stale —
// the csvs remain the source of truth, so this is always safe to run.
func (s *Store) RebuildRunOutput(ctx context.Context, outputDir string) error {
	if err := s.DeleteByRunOutput(ctx, outputDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", outputDir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "results_") || !strings.HasSuffix(name, ".csv") {
			continue
		}
		stem := strings.TrimSuffix(strings.TrimPrefix(name, "results_"), ".csv")
		if err := s.indexCSV(ctx, outputDir, name, stem); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) indexCSV(ctx context.Context, outputDir, name, stem string) error {
	f, err := os.Open(filepath.Join(outputDir, name))
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		// Empty-detection sentinel row; nothing to index.
		return nil
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	labelIdx, hasLabel := col["label"]
	confIdx, hasConf := col["confidence"]
	if !hasLabel || !hasConf {
		return nil
	}
	startIdx, hasStart := col["start_time"]
	endIdx, hasEnd := col["end_time"]

	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if labelIdx >= len(row) {
			continue
		}
		conf, _ := strconv.ParseFloat(row[confIdx], 64)
		var start, end float64
		if hasStart && startIdx < len(row) {
			start, _ = strconv.ParseFloat(row[startIdx], 64)
		}
		if hasEnd && endIdx < len(row) {
			end, _ = strconv.ParseFloat(row[endIdx], 64)
		}
		if err := s.Record(ctx, outputDir, stem, row[labelIdx], conf, start, end); err != nil {
			return err
		}
	}
	return nil
}
