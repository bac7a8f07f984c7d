package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/supervisor"
)

var startFlags watcherFlags

func init() {
	addWatcherFlags(startCmd, &startFlags)
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start watching: boot the daemon if needed, then begin analyzing new recordings",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	if err := ensureDaemon(&startFlags); err != nil {
		return err
	}

	resp, err := callDaemon("status", nil)
	if err != nil {
		return err
	}
	var status supervisor.Status
	if err := json.Unmarshal(resp.Result, &status); err != nil {
		return err
	}
	if status.Running {
		return printStatus(status)
	}

	resp, err = callDaemon("start", nil)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	if err := json.Unmarshal(resp.Result, &status); err != nil {
		return err
	}
	return printStatus(status)
}

func printStatus(s supervisor.Status) error {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
