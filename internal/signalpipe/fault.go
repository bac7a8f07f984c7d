package signalpipe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Fault is one line of the worker's exception queue: what failed, and
// whether it is fatal to the worker process (AnalysisError and
// WorkerConstructionError both are, per the error taxonomy).
type Fault struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// FaultSender writes Faults as JSON lines to a pipe. The worker process
// holds the only Sender for a given run.
type FaultSender struct {
	w io.Writer
}

func NewFaultSender(w io.Writer) *FaultSender { return &FaultSender{w: w} }

func (s *FaultSender) Send(f Fault) error {
	line, err := json.Marshal(f)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = s.w.Write(line)
	return err
}

// FaultQueue is a bounded channel of the faults one worker reported.
// The supervisor runs one per worker (workerProc.faults) but does not
// call Drain, so no control command reports the buffered faults.
// Faults beyond the bound are dropped.
type FaultQueue struct {
	ch chan Fault
}

// NewFaultQueue creates a bounded queue of the given capacity.
func NewFaultQueue(capacity int) *FaultQueue {
	return &FaultQueue{ch: make(chan Fault, capacity)}
}

// Drain pulls any faults currently buffered and returns them without
// blocking.
func (q *FaultQueue) Drain() []Fault {
	var out []Fault
	for {
		select {
		case f := <-q.ch:
			out = append(out, f)
		default:
			return out
		}
	}
}

// Run reads JSON lines from r, pushing each onto the queue until the
// pipe closes. ctx is checked only after each line is read, so a
// cancellation does not interrupt a read blocked on an idle pipe.
// Intended to run in a supervisor-side goroutine for the lifetime of
// one worker run.
func (q *FaultQueue) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var f Fault
		if err := json.Unmarshal(scanner.Bytes(), &f); err != nil {
			continue
		}
		select {
		case q.ch <- f:
		default:
			// Queue full: the supervisor hasn't drained yet and the
			// first fault already explains the crash.
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("signalpipe: fault scan: %w", err)
	}
	return nil
}
