package cli

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ssciwr/faunanet/internal/ctlsocket"
)

// callDaemon sends one control request to the running daemon. It
// returns a descriptive error if no daemon is listening — callers
// other than `start` should surface that directly rather than
// auto-booting one, since every other control operation requires a
// watcher that is already running.
func callDaemon(op string, args any) (ctlsocket.Response, error) {
	sockPath, err := socketPath()
	if err != nil {
		return ctlsocket.Response{}, err
	}
	resp, err := ctlsocket.Call(sockPath, op, args)
	if err != nil {
		return ctlsocket.Response{}, fmt.Errorf("no watcher daemon is running (run `faunanet start` first)")
	}
	return resp, nil
}

// ensureDaemon dials the control socket, spawning a detached daemon
// process with f's flags if nothing answers. It polls briefly for the
// new daemon's socket to come up before returning.
func ensureDaemon(f *watcherFlags) error {
	sockPath, err := socketPath()
	if err != nil {
		return err
	}
	if _, err := ctlsocket.Call(sockPath, "status", nil); err == nil {
		return nil
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	cmdArgs := []string{"daemon"}
	cmdArgs = append(cmdArgs, f.asArgs()...)

	cmd := exec.Command(exePath, cmdArgs...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn daemon: %w", err)
	}
	_ = cmd.Process.Release()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := ctlsocket.Call(sockPath, "status", nil); err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not become reachable at %s", sockPath)
}

// asArgs renders non-empty fields back into the flag syntax daemon.go
// parses, so ensureDaemon can hand the same configuration to the
// process it boots.
func (f *watcherFlags) asArgs() []string {
	var args []string
	if f.inputDir != "" {
		args = append(args, "--input", f.inputDir)
	}
	if f.outputRoot != "" {
		args = append(args, "--output", f.outputRoot)
	}
	if f.modelDir != "" {
		args = append(args, "--model-dir", f.modelDir)
	}
	if f.modelName != "" {
		args = append(args, "--model-name", f.modelName)
	}
	if f.profileName != "" {
		args = append(args, "--profile", f.profileName)
	}
	if f.pattern != "" {
		args = append(args, "--pattern", f.pattern)
	}
	if f.checkTime != 0 {
		args = append(args, "--check-time", fmt.Sprintf("%d", f.checkTime))
	}
	if f.deleteRecordings != "" {
		args = append(args, "--delete-recordings", f.deleteRecordings)
	}
	if f.usePolling {
		args = append(args, "--use-polling")
	}
	return args
}
