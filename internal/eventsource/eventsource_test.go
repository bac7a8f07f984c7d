package eventsource

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestRunPollingIgnoresPreexistingFiles(t *testing.T) {
	dir := t.TempDir()
	must(t, os.WriteFile(filepath.Join(dir, "preexisting.wav"), []byte("x"), 0o644))

	src := &Source{Dir: dir, Pattern: ".wav", UsePolling: true, PollInterval: 20 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		_ = src.Run(ctx, func(p string) {
			mu.Lock()
			got = append(got, p)
			mu.Unlock()
		})
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if len(got) != 0 {
		t.Fatalf("expected no events for preexisting files, got %v", got)
	}
}

func TestRunPollingDetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	src := &Source{Dir: dir, Pattern: ".wav", UsePolling: true, PollInterval: 20 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		_ = src.Run(ctx, func(p string) {
			mu.Lock()
			got = append(got, p)
			mu.Unlock()
		})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	must(t, os.WriteFile(filepath.Join(dir, "example_0.wav"), []byte("x"), 0o644))

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for polling to detect new file")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
