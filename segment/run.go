package segment

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// RunState is the lifecycle position of a Run.
type RunState int32

const (
	RunRunning RunState = iota
	RunFinished
	RunCancelled
	RunFailed
)

func (s RunState) String() string {
	switch s {
	case RunFinished:
		return "finished"
	case RunCancelled:
		return "cancelled"
	case RunFailed:
		return "failed"
	default:
		return "running"
	}
}

// Run is the handle of one pipeline run. All methods are safe for
// concurrent use.
type Run struct {
	id        string
	request   Request
	startedAt time.Time

	state     atomic.Int32
	cancelled atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}

	mu         sync.Mutex
	err        error
	language   string
	confidence float64
	percent    int
	segments   []*Segment
}

func newRun(id string, req Request, cancel context.CancelFunc) *Run {
	return &Run{
		id:        id,
		request:   req,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Request returns the request the run was started with.
func (r *Run) Request() Request { return r.request }

// StartedAt returns when Start was called.
func (r *Run) StartedAt() time.Time { return r.startedAt }

// State returns the current state.
func (r *Run) State() RunState { return RunState(r.state.Load()) }

// Cancel asks the run to stop. Idempotent and safe from inside an Observer.
// An event whose delivery was already under way when Cancel returned still
// completes; no further SegmentReady or Progress event starts after it.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
	r.cancel()
}

// Done is closed after the terminal event has been delivered.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run ends or ctx is done.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the failure or cancellation error once the run has ended.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Language returns the detected language and its confidence, if known yet.
func (r *Run) Language() (string, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.language, r.confidence
}

// Progress returns the last reported percentage.
func (r *Run) Progress() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.percent
}

// Segments returns the segments delivered so far, in span order.
func (r *Run) Segments() []*Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Segment, len(r.segments))
	copy(out, r.segments)
	return out
}

// Segment returns the delivered segment with the given index.
func (r *Run) Segment(index int) (*Segment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.segments {
		if s.Index == index {
			return s, true
		}
	}
	return nil, false
}

func (r *Run) stopping(ctx context.Context) bool {
	return r.cancelled.Load() || ctx.Err() != nil
}

// record applies e to the run's snapshot before it is delivered.
func (r *Run) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch e.Type {
	case EventLanguageDetected:
		r.language, r.confidence = e.Language, e.Confidence
	case EventProgress:
		r.percent = e.Percent
	case EventSegmentReady:
		r.segments = append(r.segments, e.Segment)
	case EventCancelled, EventFailed:
		r.err = e.Err
	}
}
