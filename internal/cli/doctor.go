package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/analyzer"
	"github.com/ssciwr/faunanet/internal/profile"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	execPath, _ := os.Executable()
	if execPath != "" {
		checks = append(checks, checkResult{
			label:  "faunanet binary",
			ok:     true,
			detail: fmt.Sprintf("%s (v%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label: "faunanet binary",
			ok:    false,
			detail: "cannot determine executable path",
		})
	}

	base, baseErr := baseDir()
	if baseErr == nil {
		if info, err := os.Stat(base); err == nil && info.IsDir() {
			checks = append(checks, checkResult{
				label:  "config directory",
				ok:     true,
				detail: base,
			})
		} else {
			checks = append(checks, checkResult{
				label:  "config directory",
				ok:     false,
				detail: "missing",
				fix:    "faunanet init",
			})
		}
	} else {
		checks = append(checks, checkResult{
			label:  "config directory",
			ok:     false,
			detail: "cannot determine home directory",
		})
	}

	analyzers := analyzer.Names()
	if len(analyzers) > 0 {
		checks = append(checks, checkResult{
			label:  "registered analyzers",
			ok:     true,
			detail: fmt.Sprintf("%v", analyzers),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "registered analyzers",
			ok:     false,
			detail: "none linked into this binary",
		})
	}

	profiles := profile.List()
	if len(profiles) > 0 {
		checks = append(checks, checkResult{
			label:  "profiles",
			ok:     true,
			detail: fmt.Sprintf("%d available", len(profiles)),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "profiles",
			ok:     false,
			detail: "none found",
			fix:    "faunanet init --profile <name> --model-name <model>",
		})
	}

	if sockPath, err := socketPath(); err == nil {
		if _, callErr := callDaemon("status", nil); callErr == nil {
			checks = append(checks, checkResult{
				label:  "watcher daemon",
				ok:     true,
				detail: fmt.Sprintf("reachable at %s", sockPath),
			})
		} else {
			checks = append(checks, checkResult{
				label:  "watcher daemon",
				ok:     false,
				detail: "not running",
				fix:    "faunanet start",
			})
		}
	}

	if runtime.GOOS == "linux" {
		unitPath := "/etc/systemd/system/faunanet-watcher@.service"
		if _, err := os.Stat(unitPath); err == nil {
			checks = append(checks, checkResult{
				label:  "watcher@ systemd template",
				ok:     true,
				detail: "installed",
			})
		} else {
			checks = append(checks, checkResult{
				label:  "watcher@ systemd template",
				ok:     false,
				detail: "not installed",
				fix:    "sudo faunanet init --install-systemd",
			})
		}
	}

	hasFailures := false
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-24s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Println(line)
	}

	if hasFailures {
		fmt.Println()
		fmt.Println("Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}
