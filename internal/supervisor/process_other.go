//go:build !linux

package supervisor

import "syscall"

// daemonAttr on non-Linux platforms can still detach the session;
// Pdeathsig has no portable equivalent, so an orphaned worker there
// relies on stop()'s explicit Terminate/Kill instead.
func daemonAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
