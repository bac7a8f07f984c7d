// Package signalpipe implements the two cross-process boolean flags the
// watcher and its worker coordinate through: may_work and done_analyzing.
// Each flag has exactly one writer role and one waiter role, so a signal
// never needs to be readable and writable from both sides of the same
// process — only mirrored across it.
package signalpipe

import (
	"context"
	"sync"
)

// Signal is a level-triggered boolean with a blocking Wait. Unlike a
// channel, reading it never consumes state: any number of waiters can
// observe the same Set without racing each other.
type Signal struct {
	mu  sync.Mutex
	cnd *sync.Cond
	set bool
}

// New returns a Signal in the cleared state.
func New() *Signal {
	s := &Signal{}
	s.cnd = sync.NewCond(&s.mu)
	return s
}

// Set marks the signal as set and wakes every waiter.
func (s *Signal) Set() {
	s.mu.Lock()
	s.set = true
	s.mu.Unlock()
	s.cnd.Broadcast()
}

// Clear marks the signal as unset.
func (s *Signal) Clear() {
	s.mu.Lock()
	s.set = false
	s.mu.Unlock()
}

// IsSet reports the current value without blocking.
func (s *Signal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Wait blocks until the signal is set or ctx is done. A signal that is
// already set returns immediately.
func (s *Signal) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.cnd.Broadcast)
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.set {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cnd.Wait()
	}
	return nil
}
