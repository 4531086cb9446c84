package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Sink or Source.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	default:
		return "idle"
	}
}

// session is one playback or recording, from Play/Start to its terminal event.
type session struct {
	id     string
	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newSession() *session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.state.Store(int32(StateStarting))
	return s
}

// requestStop flips the cooperative flag. Safe to call repeatedly and from
// any goroutine, including the session's own handlers.
func (s *session) requestStop() {
	s.state.CompareAndSwap(int32(StateStarting), int32(StateStopping))
	s.state.CompareAndSwap(int32(StateActive), int32(StateStopping))
	s.cancel()
}

func (s *session) stopRequested() bool {
	return State(s.state.Load()) == StateStopping
}

// activate moves Starting to Active; it fails if a stop already arrived.
func (s *session) activate() bool {
	return s.state.CompareAndSwap(int32(StateStarting), int32(StateActive))
}

// slot holds the single active session of a Sink or Source.
type slot struct {
	mu      sync.Mutex
	current *session
}

// begin installs a new session, asking the previous one (if any) to stop.
// The caller must wait on prev before touching the device.
func (sl *slot) begin() (prev, next *session) {
	next = newSession()
	sl.mu.Lock()
	prev = sl.current
	sl.current = next
	sl.mu.Unlock()
	if prev != nil {
		prev.requestStop()
	}
	return prev, next
}

// release clears s if it is still the current session.
func (sl *slot) release(s *session) {
	sl.mu.Lock()
	if sl.current == s {
		sl.current = nil
	}
	sl.mu.Unlock()
	s.state.Store(int32(StateIdle))
	s.cancel()
}

func (sl *slot) stop() {
	sl.mu.Lock()
	cur := sl.current
	sl.mu.Unlock()
	if cur != nil {
		cur.requestStop()
	}
}

func (sl *slot) active() bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.current != nil
}

func (sl *slot) state() State {
	sl.mu.Lock()
	cur := sl.current
	sl.mu.Unlock()
	if cur == nil {
		return StateIdle
	}
	return State(cur.state.Load())
}

// shutdown stops the current session and waits for its terminal event.
func (sl *slot) shutdown(ctx context.Context) error {
	sl.mu.Lock()
	cur := sl.current
	sl.mu.Unlock()
	if cur == nil {
		return nil
	}
	cur.requestStop()
	select {
	case <-cur.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// awaitTerminal waits up to timeout for prev to finish. It reports false
// when the wait gave up; the caller proceeds regardless.
func awaitTerminal(prev *session, timeout time.Duration) bool {
	if prev == nil {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-prev.done:
		return true
	case <-timer.C:
		return false
	}
}
