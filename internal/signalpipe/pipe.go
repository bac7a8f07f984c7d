package signalpipe

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

const (
	byteSet   byte = 'S'
	byteClear byte = 'C'
)

// Sender relays local Set/Clear transitions of a Signal across a pipe to
// a Receiver living in another process. It does not hold a *Signal
// itself — callers forward transitions explicitly via Send, since the
// sending side is usually the process that originates the transition
// rather than one mirroring it.
type Sender struct {
	w io.Writer
}

// NewSender wraps the write end of an os.Pipe (or any io.Writer, for
// in-process tests).
func NewSender(w io.Writer) *Sender {
	return &Sender{w: w}
}

// Send writes one transition byte. It is safe to call from the goroutine
// that owns the local Signal only; Sender does no internal locking.
func (s *Sender) Send(set bool) error {
	b := byteClear
	if set {
		b = byteSet
	}
	_, err := s.w.Write([]byte{b})
	return err
}

// Receiver reads transition bytes from a Sender in another process and
// applies them to a local Signal, which Wait()ers in this process can
// then block on.
type Receiver struct {
	r   *bufio.Reader
	sig *Signal
}

// NewReceiver wraps the read end of an os.Pipe. Mirror is the local
// Signal kept in sync with the sender's transitions.
func NewReceiver(r io.Reader, mirror *Signal) *Receiver {
	return &Receiver{r: bufio.NewReader(r), sig: mirror}
}

// Run relays transitions until the pipe is closed, returning nil on a
// clean close (io.EOF), which is the normal shutdown path when the peer
// process exits. ctx is checked only after each byte is applied, so a
// cancellation does not interrupt a read blocked on an idle pipe.
func (rc *Receiver) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
	}()

	for {
		b, err := rc.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("signalpipe: read: %w", err)
		}
		switch b {
		case byteSet:
			rc.sig.Set()
		case byteClear:
			rc.sig.Clear()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
