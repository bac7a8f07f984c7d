package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/config"
	"github.com/ssciwr/faunanet/internal/profile"
)

var (
	profileCreateModelName        string
	profileCreatePattern          string
	profileCreateCheckTime        int
	profileCreateDeleteRecordings string
	profileCreateDescription      string
	profileCreateForce            bool
)

func init() {
	profileCreateCmd.Flags().StringVar(&profileCreateModelName, "model-name", "", "Analyzer model subdirectory (required)")
	profileCreateCmd.Flags().StringVar(&profileCreatePattern, "pattern", "", "Input file suffix override")
	profileCreateCmd.Flags().IntVar(&profileCreateCheckTime, "check-time", 0, "Poll interval override, in seconds")
	profileCreateCmd.Flags().StringVar(&profileCreateDeleteRecordings, "delete-recordings", "", `"never" or "always"`)
	profileCreateCmd.Flags().StringVar(&profileCreateDescription, "description", "", "Human-readable description")
	profileCreateCmd.Flags().BoolVar(&profileCreateForce, "force", false, "Overwrite an existing profile of the same name")

	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileCreateCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage named AnalyzerProfiles",
	Long:  "List, inspect, and create reusable AnalyzerProfiles referenced by --profile on start/daemon/init.",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved AnalyzerProfiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a profile's fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create or overwrite a named AnalyzerProfile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

func runProfileList(cmd *cobra.Command, args []string) error {
	names := profile.List()
	if len(names) == 0 {
		fmt.Println("No profiles available. Create one with `faunanet profile create <name> --model-name <model>`.")
		return nil
	}
	fmt.Println("Available profiles:")
	for _, name := range names {
		p, err := profile.Load(name)
		if err != nil {
			fmt.Printf("  %-15s (error loading: %v)\n", name, err)
			continue
		}
		fmt.Printf("  %-15s model=%-20s %s\n", name, p.ModelName, p.Description)
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	p, err := profile.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load profile %q: %w", name, err)
	}
	if err := profile.Validate(p); err != nil {
		return fmt.Errorf("profile %q is invalid: %w", name, err)
	}

	fmt.Printf("Profile: %s\n", p.Name)
	if p.Description != "" {
		fmt.Printf("  description:       %s\n", p.Description)
	}
	fmt.Printf("  model_name:        %s\n", p.ModelName)
	fmt.Printf("  pattern:           %s\n", orDefault(p.Pattern, config.DefaultPattern))
	fmt.Printf("  check_time:        %d\n", orDefaultInt(p.CheckTime, config.DefaultCheckTime))
	fmt.Printf("  delete_recordings: %s\n", orDefault(p.DeleteRecordings, config.DeleteNever))
	fmt.Printf("  Preprocessor overrides: %d key(s)\n", len(p.Preprocessor))
	fmt.Printf("  Model overrides:        %d key(s)\n", len(p.Model))
	fmt.Printf("  Recording overrides:    %d key(s)\n", len(p.Recording))
	fmt.Printf("  SpeciesPredictor overrides: %d key(s)\n", len(p.SpeciesPredictor))
	fmt.Println()
	fmt.Println("Apply at runtime:")
	fmt.Printf("  faunanet start --profile %s --input <dir> --output <dir> --model-dir <dir>\n", name)
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	if profileCreateModelName == "" {
		return fmt.Errorf("--model-name is required")
	}
	if !profileCreateForce {
		if _, err := profile.Load(name); err == nil {
			return fmt.Errorf("profile %q already exists (use --force to overwrite)", name)
		}
	}

	p := &profile.Profile{
		Name:             name,
		Description:      profileCreateDescription,
		ModelName:        profileCreateModelName,
		Pattern:          profileCreatePattern,
		CheckTime:        profileCreateCheckTime,
		DeleteRecordings: profileCreateDeleteRecordings,
	}
	if err := profile.Validate(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if err := profile.Save(p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	fmt.Printf("Saved profile %q.\n", name)
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
