package signalpipe

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestSignalWaitReturnsOnceSet(t *testing.T) {
	s := New()
	done := make(chan error, 1)
	go func() {
		done <- s.Wait(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Set")
	case <-time.After(20 * time.Millisecond):
	}

	s.Set()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Set")
	}
}

func TestSignalWaitRespectsContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatal("expected context deadline error, got nil")
	}
}

func TestBridgeRelaysTransitions(t *testing.T) {
	var buf bytes.Buffer
	mirror := New()
	sender := NewSender(&buf)
	receiver := NewReceiver(&buf, mirror)

	if err := sender.Send(true); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := sender.Send(false); err != nil {
		t.Fatalf("Send: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- receiver.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-errCh

	if mirror.IsSet() {
		t.Fatal("expected mirror cleared after Set then Clear")
	}
}
