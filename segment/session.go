package segment

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
)

// Action is what a Session is doing.
type Action int

const (
	ActionNone Action = iota
	ActionPlayReference
	ActionRecording
	ActionPlayRecording
)

func (a Action) String() string {
	switch a {
	case ActionPlayReference:
		return "play-reference"
	case ActionRecording:
		return "recording"
	case ActionPlayRecording:
		return "play-recording"
	default:
		return "none"
	}
}

// SessionEventType names a playback or recording event.
type SessionEventType string

const (
	SessionStarted  SessionEventType = "session.started"
	SessionFinished SessionEventType = "session.finished"
	SessionError    SessionEventType = "session.error"
)

// SessionEvent reports one step of a Session action.
type SessionEvent struct {
	Type         SessionEventType
	SessionID    string
	SegmentIndex int
	Action       Action
	// Reason is "completed" or "stopped" for finished playback.
	Reason string
	// Samples is the length of a finished recording.
	Samples int
	Err     error
}

// SessionListener receives Session events on the audio goroutine. When a
// finished or error event arrives the Session is already idle, so the
// listener may start the next action. That action opens its device only
// after the finished one has closed its stream.
type SessionListener func(SessionEvent)

// Session lets a learner replay one Segment, record themselves and play the
// recording back. Only one action runs at a time; a second one is rejected
// with SESSION_BUSY rather than queued.
type Session struct {
	id      string
	segment *Segment
	sink    *audio.Sink
	source  *audio.Source
	opts    options

	mu     sync.Mutex
	action Action
}

// NewSession creates a Session over seg with its own sink and source on the
// given devices.
func NewSession(seg *Segment, out audio.OutputDevice, in audio.InputDevice, opts ...Option) *Session {
	o := buildOptions("segment.session", opts)
	id := uuid.NewString()
	o.log = o.log.WithFields(logger.Fields(logger.FieldSessionID, id, logger.FieldSegmentIndex, seg.Index))
	audioOpts := []audio.Option{
		audio.WithConfig(o.audio),
		audio.WithLogger(o.log),
		audio.WithMetrics(o.metrics),
	}
	return &Session{
		id:      id,
		segment: seg,
		sink:    audio.NewSink(out, audioOpts...),
		source:  audio.NewSource(in, audioOpts...),
		opts:    o,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Segment returns the segment this session works on.
func (s *Session) Segment() *Segment { return s.segment }

// Action returns the action in flight, or ActionNone.
func (s *Session) Action() Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.action
}

// Busy reports whether an action is in flight.
func (s *Session) Busy() bool { return s.Action() != ActionNone }

// PlayReference plays the segment's original audio.
func (s *Session) PlayReference() error {
	if err := s.acquire(ActionPlayReference); err != nil {
		return err
	}
	return s.play(ActionPlayReference, s.segment.Audio)
}

// PlayRecording plays the learner recording. It fails with NO_RECORDING when
// nothing has been recorded yet.
func (s *Session) PlayRecording() error {
	if err := s.acquire(ActionPlayRecording); err != nil {
		return err
	}
	rec := s.segment.Recording()
	if rec == nil {
		s.clear()
		return errors.NoRecording()
	}
	return s.play(ActionPlayRecording, rec)
}

// ToggleRecording starts a recording, or stops the one in flight. A finished
// recording replaces the segment's previous one.
func (s *Session) ToggleRecording() error {
	s.mu.Lock()
	switch s.action {
	case ActionRecording:
		s.mu.Unlock()
		s.opts.log.Debug("stopping recording")
		s.source.Stop()
		return nil
	case ActionNone:
		s.action = ActionRecording
		s.mu.Unlock()
	default:
		busy := s.action
		s.mu.Unlock()
		return errors.SessionBusy(busy.String())
	}

	return s.source.Start(audio.RecordingHandler{
		OnStarted: func() { s.notify(SessionEvent{Type: SessionStarted, Action: ActionRecording}) },
		OnFinished: func(buf *audio.SampleBuffer) {
			s.segment.SetRecording(buf)
			s.clear()
			s.notify(SessionEvent{Type: SessionFinished, Action: ActionRecording, Samples: buf.Len()})
		},
		OnError: func(err error) {
			s.clear()
			s.notify(SessionEvent{Type: SessionError, Action: ActionRecording, Err: err})
		},
	})
}

// Stop ends whatever is in flight. The action's own finished or error event
// still fires.
func (s *Session) Stop() {
	s.sink.Stop()
	s.source.Stop()
}

// Close stops the session and waits for its audio goroutines to end. Both
// the sink and the source are closed even when one of them fails.
func (s *Session) Close(ctx context.Context) error {
	return stderrors.Join(s.sink.Close(ctx), s.source.Close(ctx))
}

func (s *Session) acquire(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.action != ActionNone {
		return errors.SessionBusy(s.action.String())
	}
	s.action = a
	return nil
}

func (s *Session) clear() {
	s.mu.Lock()
	s.action = ActionNone
	s.mu.Unlock()
}

func (s *Session) play(a Action, buf *audio.SampleBuffer) error {
	err := s.sink.Play(buf, audio.PlaybackHandler{
		OnStarted: func() { s.notify(SessionEvent{Type: SessionStarted, Action: a}) },
		OnFinished: func(reason audio.FinishReason) {
			s.clear()
			s.notify(SessionEvent{Type: SessionFinished, Action: a, Reason: reason.String()})
		},
		OnError: func(err error) {
			s.clear()
			s.notify(SessionEvent{Type: SessionError, Action: a, Err: err})
		},
	})
	if err != nil {
		s.clear()
	}
	return err
}

func (s *Session) notify(e SessionEvent) {
	e.SessionID = s.id
	e.SegmentIndex = s.segment.Index
	if e.Err != nil {
		s.opts.log.Warn("session action failed", logger.Fields("action", e.Action.String(), logger.FieldError, e.Err.Error()))
	} else {
		s.opts.log.Debug("session event", logger.Fields("action", e.Action.String(), "event", string(e.Type)))
	}
	if s.opts.listener != nil {
		s.opts.listener(e)
	}
}
