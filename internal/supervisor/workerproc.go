package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssciwr/faunanet/internal/procguard"
	"github.com/ssciwr/faunanet/internal/signalpipe"
)

// workerProc is the supervisor's handle on one running worker child: the
// OS process plus the three pipes that carry may_work, done_analyzing,
// and the fault queue across the process boundary.
type workerProc struct {
	cmd        *exec.Cmd
	guard      *procguard.Guard
	mayWork    *signalpipe.Sender // supervisor -> worker
	mayWorkW   *os.File
	done       *signalpipe.Signal // supervisor-side mirror of done_analyzing
	faults     *signalpipe.FaultQueue
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	handoffTmp string
}

// spawnWorker re-execs exePath as a hidden "__worker" subcommand,
// handing it cfg/outputDir via a JSON file and the three pipe endpoints
// via ExtraFiles (fds 3, 4, 5 in the child: may_work-read, done-write,
// fault-write). The supervisor keeps the complementary ends.
func spawnWorker(ctx context.Context, exePath string, stateDir string, handoff workerHandoff) (*workerProc, error) {
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return nil, fmt.Errorf("supervisor: create state dir: %w", err)
	}
	handoffPath := filepath.Join(stateDir, "worker-handoff.json")
	if err := writeHandoff(handoffPath, handoff.Cfg, handoff.OutputDir, handoff.UsePolling); err != nil {
		return nil, err
	}

	mayWorkR, mayWorkW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("supervisor: create may_work pipe: %w", err)
	}
	doneR, doneW, err := os.Pipe()
	if err != nil {
		mayWorkR.Close()
		mayWorkW.Close()
		return nil, fmt.Errorf("supervisor: create done_analyzing pipe: %w", err)
	}
	faultR, faultW, err := os.Pipe()
	if err != nil {
		mayWorkR.Close()
		mayWorkW.Close()
		doneR.Close()
		doneW.Close()
		return nil, fmt.Errorf("supervisor: create fault pipe: %w", err)
	}

	cmd := exec.Command(exePath, "__worker", handoffPath)
	cmd.ExtraFiles = []*os.File{mayWorkR, doneW, faultW}
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = daemonAttr()

	if err := cmd.Start(); err != nil {
		mayWorkR.Close()
		mayWorkW.Close()
		doneR.Close()
		doneW.Close()
		faultR.Close()
		faultW.Close()
		return nil, fmt.Errorf("supervisor: start worker process: %w", err)
	}

	// The child has its own duplicates of the ends it uses; the
	// supervisor must close them here or it will never observe EOF when
	// the worker exits.
	mayWorkR.Close()
	doneW.Close()
	faultW.Close()

	wp := &workerProc{
		cmd:        cmd,
		guard:      procguard.New(cmd.Process.Pid),
		mayWork:    signalpipe.NewSender(mayWorkW),
		mayWorkW:   mayWorkW,
		done:       signalpipe.New(),
		faults:     signalpipe.NewFaultQueue(16),
		handoffTmp: handoffPath,
	}

	runCtx, cancel := context.WithCancel(ctx)
	wp.cancel = cancel

	doneReceiver := signalpipe.NewReceiver(doneR, wp.done)
	wp.wg.Add(2)
	go func() { defer wp.wg.Done(); _ = doneReceiver.Run(runCtx) }()
	go func() { defer wp.wg.Done(); _ = wp.faults.Run(runCtx, faultR) }()

	return wp, nil
}

// closePipes cancels the relay goroutines and releases the supervisor's
// write end of may_work; called once the worker process has exited.
func (wp *workerProc) closePipes() {
	wp.cancel()
	wp.wg.Wait()
	_ = wp.mayWorkW.Close()
	_ = os.Remove(wp.handoffTmp)
}

// wait blocks for process exit, returning cmd.Wait()'s error.
func (wp *workerProc) wait() error {
	return wp.cmd.Wait()
}

// terminateAndJoin sends SIGTERM and waits up to timeout for the
// process to exit on its own, escalating to SIGKILL otherwise.
func (wp *workerProc) terminateAndJoin(timeout time.Duration) error {
	if !wp.guard.Alive() {
		return nil
	}
	if err := wp.guard.Terminate(); err != nil {
		return fmt.Errorf("supervisor: terminate worker: %w", err)
	}

	exited := make(chan struct{})
	go func() {
		_ = wp.wait()
		close(exited)
	}()

	select {
	case <-exited:
		return nil
	case <-time.After(timeout):
	}

	if err := wp.guard.Kill(); err != nil && wp.guard.Alive() {
		return fmt.Errorf("supervisor: kill worker: %w", err)
	}
	<-exited
	return nil
}
