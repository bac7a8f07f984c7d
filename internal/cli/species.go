package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/catalog"
)

var speciesOutputRoot string

func init() {
	speciesCmd.Flags().StringVar(&speciesOutputRoot, "output-root", "", "output_root of the watcher configuration to query (required)")
	rootCmd.AddCommand(speciesCmd)
}

var speciesCmd = &cobra.Command{
	Use:   "species <label>",
	Short: "Count detections of a species label across every RunOutput under --output-root",
	Long: `Rebuilds the derived catalog.sqlite index for --output-root from
its results_*.csv files, then reports how many detections of <label>
have ever been recorded across every RunOutput folder there. The csvs
remain the source of truth; every call re-reads them to refresh the
index before counting.`,
	Args: cobra.ExactArgs(1),
	RunE: runSpecies,
}

func runSpecies(cmd *cobra.Command, args []string) error {
	if speciesOutputRoot == "" {
		return fmt.Errorf("--output-root is required")
	}
	label := args[0]

	store, err := catalog.Open(filepath.Join(speciesOutputRoot, "catalog.sqlite"))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	entries, err := os.ReadDir(speciesOutputRoot)
	if err != nil {
		return fmt.Errorf("list %s: %w", speciesOutputRoot, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(speciesOutputRoot, e.Name())
		if _, err := os.Stat(filepath.Join(dir, "config.yml")); err != nil {
			continue
		}
		if err := store.RebuildRunOutput(ctx, dir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: reindex %s: %v\n", dir, err)
		}
	}

	n, err := store.CountBySpecies(ctx, label)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	fmt.Printf("%s: %d detections\n", label, n)
	return nil
}
