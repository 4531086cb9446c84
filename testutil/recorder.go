package testutil

import (
	"sync"
	"testing"
	"time"
)

// Recorder collects named events from concurrent callbacks.
type Recorder struct {
	mu     sync.Mutex
	events []string
	notify chan struct{}
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// Add appends an event.
func (r *Recorder) Add(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many times event was recorded.
func (r *Recorder) Count(event string) int {
	n := 0
	for _, e := range r.Events() {
		if e == event {
			n++
		}
	}
	return n
}

// WaitFor blocks until at least n events are recorded, failing t after timeout.
func (r *Recorder) WaitFor(t testing.TB, n int, timeout time.Duration) []string {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if ev := r.Events(); len(ev) >= n {
			return ev
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			t.Fatalf("timed out waiting for %d events, got %v", n, r.Events())
			return nil
		}
	}
}

// Eventually polls cond until it holds, failing t after timeout.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v: %s", timeout, msg)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
