//go:build linux

package supervisor

import "syscall"

// daemonAttr detaches the worker into its own session and asks the
// kernel to SIGTERM it if this supervisor process dies before reaping
// it — a crashed supervisor must not leave an orphaned worker writing
// into a RunOutput nobody is watching.
func daemonAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid:    true,
		Pdeathsig: syscall.SIGTERM,
	}
}
