package segment

import (
	"math"
	"strings"
	"sync"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/transcription"
)

// Segment is one transcribed span of the source recording together with its
// audio. Index, Text, Start, End and Audio never change after extraction;
// the learner recording is replaced on every finished recording.
type Segment struct {
	Index int
	Text  string
	Start float64
	End   float64
	Audio *audio.SampleBuffer

	mu        sync.RWMutex
	recording *audio.SampleBuffer
}

// Recording returns the latest learner recording, or nil.
func (s *Segment) Recording() *audio.SampleBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recording
}

// HasRecording reports whether a learner recording exists.
func (s *Segment) HasRecording() bool { return s.Recording() != nil }

// SetRecording replaces the learner recording.
func (s *Segment) SetRecording(buf *audio.SampleBuffer) {
	s.mu.Lock()
	s.recording = buf
	s.mu.Unlock()
}

// Extractor slices a decoded waveform into Segments.
type Extractor struct {
	// Rate is the reference sample rate for span-to-sample math. Zero uses
	// the waveform's own rate.
	Rate int
}

// Extract builds the Segment for span. Sample bounds are
// round(start*rate)..round(end*rate), clamped to the waveform. Spans with a
// negative start, an end not after the start, or non-finite bounds are
// rejected with INVALID_INPUT.
func (e Extractor) Extract(index int, span transcription.Span, waveform *audio.SampleBuffer) (*Segment, error) {
	if waveform == nil {
		return nil, errors.InvalidInput("waveform", "no decoded audio")
	}
	if !span.Valid() {
		return nil, errors.InvalidInput("span", "span bounds are not usable").
			WithDetails(map[string]any{"index": index, "start": span.Start, "end": span.End})
	}
	rate := e.Rate
	if rate <= 0 {
		rate = waveform.Rate()
	}
	from := int(math.Round(span.Start * float64(rate)))
	to := int(math.Round(span.End * float64(rate)))
	return &Segment{
		Index: index,
		Text:  strings.TrimSpace(span.Text),
		Start: span.Start,
		End:   span.End,
		Audio: waveform.Slice(from, to),
	}, nil
}
