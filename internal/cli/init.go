package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/profile"
	"github.com/ssciwr/faunanet/internal/systemd"
)

var (
	initProfileName    string
	initModelName      string
	initInstallSystemd bool
	initForce          bool
)

func init() {
	initCmd.Flags().StringVar(&initProfileName, "profile", "", "Name of an AnalyzerProfile to create")
	initCmd.Flags().StringVar(&initModelName, "model-name", "", "model_dir subdirectory the new profile should use (required with --profile)")
	initCmd.Flags().BoolVar(&initInstallSystemd, "install-systemd", false, "Install the faunanet-watcher@ systemd template (requires root)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing profile of the same name")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap ~/.faunanet and optionally a starter AnalyzerProfile and systemd unit",
	Long: `Creates ~/.faunanet and ~/.faunanet/profiles.

With --profile and --model-name: writes a starter AnalyzerProfile so
'faunanet start --profile <name>' has something to load.

With --install-systemd: installs the faunanet-watcher@.service template
so a profile can run as a managed service via:
  systemctl enable --now faunanet-watcher@<profile-name>`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	base, err := baseDir()
	if err != nil {
		return err
	}

	var created []string

	if err := os.MkdirAll(base, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", base, err)
	}
	profilesDir := filepath.Join(base, "profiles")
	if err := os.MkdirAll(profilesDir, 0o755); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	if initProfileName != "" {
		if initModelName == "" {
			return fmt.Errorf("--model-name is required with --profile")
		}
		profPath := filepath.Join(profilesDir, initProfileName+".yaml")
		if !initForce {
			if _, err := os.Stat(profPath); err == nil {
				return fmt.Errorf("profile %q already exists (use --force to overwrite)", initProfileName)
			}
		}
		prof := &profile.Profile{
			Name:      initProfileName,
			ModelName: initModelName,
		}
		if err := profile.Validate(prof); err != nil {
			return fmt.Errorf("invalid profile: %w", err)
		}
		if err := profile.Save(prof); err != nil {
			return fmt.Errorf("write profile: %w", err)
		}
		created = append(created, profPath)
	}

	if initInstallSystemd {
		if runtime.GOOS != "linux" {
			return fmt.Errorf("--install-systemd is only supported on Linux")
		}
		if os.Geteuid() != 0 {
			return fmt.Errorf("--install-systemd requires root; run with sudo")
		}

		unitPath := "/etc/systemd/system/faunanet-watcher@.service"
		if err := os.WriteFile(unitPath, []byte(systemd.WatcherTemplate()), 0o644); err != nil {
			return fmt.Errorf("write systemd unit: %w", err)
		}
		created = append(created, unitPath)

		if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: systemctl daemon-reload failed: %v\n", err)
		}
	}

	fmt.Println("faunanet init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	}

	fmt.Println("Verify:")
	fmt.Println("  faunanet doctor")
	fmt.Println()
	fmt.Println("Start watching:")
	if initProfileName != "" {
		fmt.Printf("  faunanet start --profile %s --input <dir> --output <dir> --model-dir <dir>\n", initProfileName)
	} else {
		fmt.Println("  faunanet start --input <dir> --output <dir> --model-dir <dir> --model-name <name>")
	}

	if initInstallSystemd {
		fmt.Println()
		fmt.Println("Enable as a managed service:")
		fmt.Println("  sudo systemctl enable --now faunanet-watcher@<profile-name>")
	}

	return nil
}
