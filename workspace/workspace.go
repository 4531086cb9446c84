package workspace

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
	"github.com/kbukum/shadowkit/segment"
	"github.com/kbukum/shadowkit/sse"
)

// Session action names accepted by SessionAction.
const (
	ActionPlayReference = "play-reference"
	ActionRecord        = "record"
	ActionPlayRecording = "play-recording"
	ActionStop          = "stop"
)

// Starter starts pipeline runs; *segment.Pipeline implements it.
type Starter interface {
	Start(ctx context.Context, req segment.Request, obs segment.Observer) *segment.Run
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

// WithMetrics passes metrics to the sessions.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Workspace) { w.metrics = m }
}

// WithAudioConfig sets chunking and timeouts for session audio.
func WithAudioConfig(cfg audio.Config) Option {
	return func(w *Workspace) { w.audioCfg = cfg }
}

// WithPublisher receives every logged entry.
func WithPublisher(p sse.Publisher) Option {
	return func(w *Workspace) { w.pub = p }
}

// WithDevices sets the audio devices sessions play and record on.
func WithDevices(out audio.OutputDevice, in audio.InputDevice) Option {
	return func(w *Workspace) { w.out, w.in = out, in }
}

// Workspace holds all runs of the process.
type Workspace struct {
	pipeline Starter
	out      audio.OutputDevice
	in       audio.InputDevice
	pub      sse.Publisher
	audioCfg audio.Config
	log      *logger.Logger
	metrics  *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	runs  map[string]*runState
	order []string
}

type runState struct {
	id  string
	run *segment.Run

	mu       sync.Mutex
	seq      int64
	entries  []Entry
	sessions map[int]*segment.Session
}

// New creates an empty Workspace that starts runs on p.
func New(p Starter, opts ...Option) *Workspace {
	w := &Workspace{
		pipeline: p,
		runs:     make(map[string]*runState),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.Get("workspace")
	} else {
		w.log = w.log.WithComponent("workspace")
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

// Topic returns the sse topic of a run.
func Topic(runID string) string { return "run:" + runID }

// StartRun starts a pipeline run for req and begins logging its events.
func (w *Workspace) StartRun(req segment.Request) (*segment.Run, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, errors.InvalidInput("path", "an audio file path is required")
	}
	if w.ctx.Err() != nil {
		return nil, errors.Internal(fmt.Errorf("workspace is closed"))
	}

	rs := &runState{sessions: make(map[int]*segment.Session)}
	run := w.pipeline.Start(w.ctx, req, segment.ObserverFunc(func(e segment.Event) {
		w.append(rs, pipelineEntry(e))
	}))

	rs.mu.Lock()
	rs.id, rs.run = run.ID(), run
	rs.mu.Unlock()

	w.mu.Lock()
	w.runs[run.ID()] = rs
	w.order = append(w.order, run.ID())
	w.mu.Unlock()

	w.log.Info("run registered", logger.Fields(logger.FieldRunID, run.ID(), logger.FieldPath, req.Path))
	return run, nil
}

// Run returns the run with id.
func (w *Workspace) Run(id string) (*segment.Run, error) {
	rs, err := w.get(id)
	if err != nil {
		return nil, err
	}
	return rs.run, nil
}

// Runs returns all runs in start order.
func (w *Workspace) Runs() []*segment.Run {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*segment.Run, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.runs[id].run)
	}
	return out
}

// CancelRun cancels a run. Cancelling a finished run is a no-op.
func (w *Workspace) CancelRun(id string) error {
	rs, err := w.get(id)
	if err != nil {
		return err
	}
	rs.run.Cancel()
	return nil
}

// Entries returns a copy of a run's event log.
func (w *Workspace) Entries(id string) ([]Entry, error) {
	rs, err := w.get(id)
	if err != nil {
		return nil, err
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]Entry, len(rs.entries))
	copy(out, rs.entries)
	return out, nil
}

// Replay returns a run's event log as server-sent events.
func (w *Workspace) Replay(id string) ([]sse.Event, error) {
	entries, err := w.Entries(id)
	if err != nil {
		return nil, err
	}
	out := make([]sse.Event, len(entries))
	for i, e := range entries {
		out[i] = e.SSE()
	}
	return out, nil
}

// Session returns the practice session of a delivered segment, creating it
// on first use.
func (w *Workspace) Session(runID string, index int) (*segment.Session, error) {
	rs, err := w.get(runID)
	if err != nil {
		return nil, err
	}
	seg, ok := rs.run.Segment(index)
	if !ok {
		return nil, errors.NotFound("segment", fmt.Sprintf("%s/%d", runID, index))
	}
	if w.out == nil || w.in == nil {
		return nil, errors.DeviceOpenFailed(audio.DirectionOutput, fmt.Errorf("no audio devices configured"))
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if s, ok := rs.sessions[index]; ok {
		return s, nil
	}
	s := segment.NewSession(seg, w.out, w.in,
		segment.WithLogger(w.log.WithFields(logger.Fields(logger.FieldRunID, runID))),
		segment.WithMetrics(w.metrics),
		segment.WithAudioConfig(w.audioCfg),
		segment.WithListener(func(e segment.SessionEvent) {
			w.append(rs, sessionEntry(runID, e))
		}),
	)
	rs.sessions[index] = s
	return s, nil
}

// SessionAction runs one of the Action* names on a segment's session.
func (w *Workspace) SessionAction(runID string, index int, action string) (*segment.Session, error) {
	s, err := w.Session(runID, index)
	if err != nil {
		return nil, err
	}
	switch action {
	case ActionPlayReference:
		err = s.PlayReference()
	case ActionRecord:
		err = s.ToggleRecording()
	case ActionPlayRecording:
		err = s.PlayRecording()
	case ActionStop:
		s.Stop()
	default:
		return nil, errors.InvalidInput("action", fmt.Sprintf("unknown session action %q", action))
	}
	return s, err
}

// Close cancels every run and stops every session, waiting until ctx ends
// for them to settle. Every session is closed even when an earlier one
// fails; the failures come back joined.
func (w *Workspace) Close(ctx context.Context) error {
	w.cancel()

	w.mu.RLock()
	states := make([]*runState, 0, len(w.runs))
	for _, rs := range w.runs {
		states = append(states, rs)
	}
	w.mu.RUnlock()

	var errs []error
	for _, rs := range states {
		select {
		case <-rs.run.Done():
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("run %s: %w", rs.id, ctx.Err()))
		}
		rs.mu.Lock()
		sessions := make([]*segment.Session, 0, len(rs.sessions))
		for _, s := range rs.sessions {
			sessions = append(sessions, s)
		}
		rs.mu.Unlock()
		for _, s := range sessions {
			if err := s.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("session %s: %w", s.ID(), err))
			}
		}
	}
	return stderrors.Join(errs...)
}

func (w *Workspace) get(id string) (*runState, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rs, ok := w.runs[id]
	if !ok {
		return nil, errors.NotFound("transcription", id)
	}
	return rs, nil
}

// append sequences e into the run's log and publishes it.
func (w *Workspace) append(rs *runState, e Entry) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.seq++
	e.Seq = rs.seq
	rs.entries = append(rs.entries, e)
	if w.pub != nil {
		w.pub.Publish(Topic(e.RunID), e.SSE())
	}
}
