package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssciwr/faunanet/internal/ctlsocket"
	"github.com/ssciwr/faunanet/internal/events"
	"github.com/ssciwr/faunanet/internal/supervisor"
)

var daemonFlags watcherFlags

func init() {
	addWatcherFlags(daemonCmd, &daemonFlags)
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:    "daemon",
	Short:  "Run the watcher supervisor in the foreground, serving control commands over a Unix socket",
	Hidden: true,
	RunE:   runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := daemonFlags.buildConfig()
	if err != nil {
		return err
	}

	base, err := baseDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", base, err)
	}

	lockPath, err := pidPath()
	if err != nil {
		return err
	}
	if err := acquirePIDLock(lockPath); err != nil {
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer os.Remove(lockPath)

	logPath, err := eventsLogPath()
	if err != nil {
		return err
	}
	log, err := events.Open(logPath)
	if err != nil {
		return err
	}
	defer log.Close()

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	stateDir, err := workerStateDir()
	if err != nil {
		return err
	}

	w := supervisor.New(cfg, exePath, stateDir, log)
	w.SetUsePolling(daemonFlags.usePolling)

	sockPath, err := socketPath()
	if err != nil {
		return err
	}
	ln, err := ctlsocket.Serve(sockPath, dispatch(w))
	if err != nil {
		return err
	}
	defer ln.Close()
	defer os.Remove(sockPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := w.Start(); err != nil {
		return fmt.Errorf("daemon: initial start: %w", err)
	}

	<-ctx.Done()
	if w.Status().Running {
		_ = w.Stop()
	}
	return nil
}

// dispatch maps control-socket operation names to Watcher methods.
func dispatch(w *supervisor.Watcher) ctlsocket.Handler {
	return func(req ctlsocket.Request) ctlsocket.Response {
		switch req.Op {
		case "status":
			return okResult(w.Status())
		case "start":
			if err := w.Start(); err != nil {
				return errResult(err)
			}
			return okResult(w.Status())
		case "pause":
			if err := w.Pause(); err != nil {
				return errResult(err)
			}
			return okResult(w.Status())
		case "go_on":
			if err := w.Resume(); err != nil {
				return errResult(err)
			}
			return okResult(w.Status())
		case "stop":
			if err := w.Stop(); err != nil {
				return errResult(err)
			}
			return okResult(w.Status())
		case "restart":
			if err := w.Restart(); err != nil {
				return errResult(err)
			}
			return okResult(w.Status())
		case "change_analyzer":
			var params supervisor.ChangeAnalyzerParams
			if len(req.Args) > 0 {
				if err := json.Unmarshal(req.Args, &params); err != nil {
					return errResult(err)
				}
			}
			if err := w.ChangeAnalyzer(params); err != nil {
				return errResult(err)
			}
			return okResult(w.Status())
		case "clean_up":
			report, err := w.CleanUp()
			if err != nil {
				return errResult(err)
			}
			return okResult(report)
		default:
			return errResult(fmt.Errorf("unknown control operation %q", req.Op))
		}
	}
}

func okResult(v any) ctlsocket.Response {
	data, err := json.Marshal(v)
	if err != nil {
		return ctlsocket.Response{Error: err.Error()}
	}
	return ctlsocket.Response{Result: data}
}

func errResult(err error) ctlsocket.Response {
	return ctlsocket.Response{Error: err.Error()}
}

// acquirePIDLock writes the current PID to path, refusing to start if
// another daemon's PID there is still alive.
func acquirePIDLock(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		if pid, err := strconv.Atoi(string(data)); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another daemon is running (PID %d)", pid)
				}
			}
		}
		_ = os.Remove(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}
