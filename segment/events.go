package segment

import "time"

// EventType names a pipeline event.
type EventType string

const (
	EventLanguageDetected EventType = "language_detected"
	EventProgress         EventType = "progress"
	EventSegmentReady     EventType = "segment_ready"
	EventFinished         EventType = "finished"
	EventCancelled        EventType = "cancelled"
	EventFailed           EventType = "failed"
)

// Terminal reports whether t ends a run.
func (t EventType) Terminal() bool {
	return t == EventFinished || t == EventCancelled || t == EventFailed
}

// Event is one notification from a running pipeline. Only the fields that
// belong to Type are set.
type Event struct {
	Type  EventType
	RunID string
	Time  time.Time

	// LanguageDetected
	Language   string
	Confidence float64

	// Progress, 0..100
	Percent int

	// SegmentReady
	Segment *Segment

	// Failed
	Err error
}

// Observer receives pipeline events on the run's goroutine, in order.
// Implementations may call Run.Cancel from inside OnEvent.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
