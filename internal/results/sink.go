// Package results implements ResultsSink (§4.5): writing per-file
// detection records to results_<stem>.csv, and the missings.txt
// sentinel the clean-up reconciler uses to seal a RunOutput. Grounded
// in the teacher's atomic write pattern (internal/daemon/processor.go's
// writeResult): every file is written to a .tmp sibling and renamed
// into place so a reader never observes a half-written file.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ssciwr/faunanet/internal/analyzer"
	"github.com/ssciwr/faunanet/internal/config"
)

// StemFor returns the input file's basename without its extension,
// e.g. "example_0.wav" -> "example_0".
func StemFor(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Write creates outputDir/results_<stem>.csv. An empty detection list
// produces a file with a single empty row; otherwise the first
// detection's keys (in Go map iteration order stabilized via sort, for
// a reproducible column order) determine the header.
func Write(outputDir, stem string, detections []analyzer.Detection) error {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if len(detections) == 0 {
		if err := w.Write([]string{}); err != nil {
			return fmt.Errorf("results: write empty row: %w", err)
		}
	} else {
		header := fieldOrder(detections[0])
		if err := w.Write(header); err != nil {
			return fmt.Errorf("results: write header: %w", err)
		}
		for _, d := range detections {
			row := make([]string, len(header))
			for i, key := range header {
				row[i] = fmt.Sprintf("%v", d[key])
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("results: write row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("results: flush: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("results_%s.csv", stem))
	return config.AtomicWrite(path, []byte(buf.String()), 0o644)
}

// fieldOrder returns the keys of the first detection, sorted, giving a
// deterministic column order across runs even though Go map iteration
// is randomized. This sorts rather than preserving the plugin's
// insertion order (the literal order a third-party Recording built its
// detection in), a deliberate Go-idiom trade-off: analyzer.Detection is
// a map, which has no insertion order for Go to preserve in the first
// place, and a sorted header is deterministic and reproducible across
// runs, which matters more here than matching the exact key order a
// particular plugin happened to write.
func fieldOrder(d analyzer.Detection) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasResult reports whether outputDir already has a results file for
// stem — the test clean_up() uses to decide what still needs
// reconciling (§4.1, clean_up step 3).
func HasResult(outputDir, stem string) bool {
	path := filepath.Join(outputDir, fmt.Sprintf("results_%s.csv", stem))
	_, err := os.Stat(path)
	return err == nil
}

// WriteMissings writes missings.txt: one absolute input path per line,
// LF-terminated, no header. Its presence seals a RunOutput.
func WriteMissings(outputDir string, paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return config.AtomicWrite(filepath.Join(outputDir, "missings.txt"), []byte(b.String()), 0o644)
}

// IsSealed reports whether outputDir already has missings.txt.
func IsSealed(outputDir string) bool {
	_, err := os.Stat(filepath.Join(outputDir, "missings.txt"))
	return err == nil
}

// WriteBatchManifest seals the pre-swap RunOutput with a manifest
// listing the inputs it covers, as change_analyzer's step 7 requires.
func WriteBatchManifest(outputDir, batchfileName string, inputs []string) error {
	var b strings.Builder
	for _, p := range inputs {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return config.AtomicWrite(filepath.Join(outputDir, batchfileName), []byte(b.String()), 0o644)
}
