package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/supervisor"
)

func init() {
	rootCmd.AddCommand(pauseCmd, resumeCmd, stopCmd, restartCmd, statusCmd, cleanupCmd)
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the watcher once its current file finishes analyzing",
	RunE:  simpleControl("pause"),
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused watcher",
	RunE:  simpleControl("go_on"),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the watcher and terminate its worker process",
	RunE:  simpleControl("stop"),
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop and immediately start a fresh RunOutput",
	RunE:  simpleControl("restart"),
}

// simpleControl's callers (pause/resume/stop/restart) all return a
// supervisor.Status on success, so they share printStatus's formatting.

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the watcher is running, paused, and where it is writing results",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := callDaemon("status", nil)
		if err != nil {
			return err
		}
		if resp.Error != "" {
			return fmt.Errorf("%s", resp.Error)
		}
		var status supervisor.Status
		if err := json.Unmarshal(resp.Result, &status); err != nil {
			return err
		}
		return printStatus(status)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Reconcile RunOutput folders left with missing results",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := callDaemon("clean_up", nil)
		if err != nil {
			return err
		}
		if resp.Error != "" {
			return fmt.Errorf("%s", resp.Error)
		}
		var report supervisor.CleanupReport
		if err := json.Unmarshal(resp.Result, &report); err != nil {
			return err
		}
		fmt.Printf("reconciled %s RunOutput folder(s), wrote %s result file(s)\n",
			humanize.Comma(int64(len(report.Reconciled))), humanize.Comma(int64(report.FilesWritten)))
		if len(report.Failed) > 0 {
			fmt.Printf("%s folder(s) failed to reconcile\n", humanize.Comma(int64(len(report.Failed))))
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

// simpleControl returns a RunE that sends op to the daemon with no
// arguments and prints the resulting watcher status.
func simpleControl(op string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		resp, err := callDaemon(op, nil)
		if err != nil {
			return err
		}
		if resp.Error != "" {
			return fmt.Errorf("%s", resp.Error)
		}
		var status supervisor.Status
		if err := json.Unmarshal(resp.Result, &status); err != nil {
			return err
		}
		return printStatus(status)
	}
}

// changeAnalyzerCmd is declared here since it shares simpleControl's
// output formatting but needs its own flags and argument struct.
var changeAnalyzerFlags supervisor.ChangeAnalyzerParams

func init() {
	changeAnalyzerCmd.Flags().StringVar(&changeAnalyzerFlags.ModelName, "model-name", "", "Analyzer model subdirectory to switch to")
	changeAnalyzerCmd.Flags().StringVar(&changeAnalyzerFlags.Pattern, "pattern", "", "Input file suffix override")
	changeAnalyzerCmd.Flags().IntVar(&changeAnalyzerFlags.CheckTime, "check-time", 0, "Poll interval override, in seconds")
	changeAnalyzerCmd.Flags().StringVar(&changeAnalyzerFlags.DeleteRecordings, "delete-recordings", "", `"never" or "always"`)
	rootCmd.AddCommand(changeAnalyzerCmd)
}

var changeAnalyzerCmd = &cobra.Command{
	Use:   "change-analyzer",
	Short: "Swap the running watcher's analyzer model and restart it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if changeAnalyzerFlags.ModelName == "" {
			return fmt.Errorf("--model-name is required")
		}
		resp, err := callDaemon("change_analyzer", changeAnalyzerFlags)
		if err != nil {
			return err
		}
		if resp.Error != "" {
			return fmt.Errorf("%s", resp.Error)
		}
		var status supervisor.Status
		if err := json.Unmarshal(resp.Result, &status); err != nil {
			return err
		}
		return printStatus(status)
	},
}
