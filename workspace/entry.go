package workspace

import (
	"encoding/json"
	"time"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/segment"
	"github.com/kbukum/shadowkit/sse"
)

// Entry is one logged event of a run, pipeline or session.
type Entry struct {
	Seq          int64     `json:"seq"`
	Type         string    `json:"type"`
	Time         time.Time `json:"time"`
	RunID        string    `json:"run_id"`
	SegmentIndex *int      `json:"segment_index,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`

	Language   string   `json:"language,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Percent    *int     `json:"percent,omitempty"`
	Segment    *Summary `json:"segment,omitempty"`
	Action     string   `json:"action,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Samples    int      `json:"samples,omitempty"`
	Code       string   `json:"code,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// Summary is the wire form of a Segment.
type Summary struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Samples      int     `json:"samples"`
	HasRecording bool    `json:"has_recording"`
}

// Summarize converts a Segment for the wire.
func Summarize(s *segment.Segment) Summary {
	return Summary{
		Index:        s.Index,
		Text:         s.Text,
		Start:        s.Start,
		End:          s.End,
		Samples:      s.Audio.Len(),
		HasRecording: s.HasRecording(),
	}
}

// SSE renders the entry as a server-sent event.
func (e Entry) SSE() sse.Event {
	data, _ := json.Marshal(e)
	return sse.Event{Seq: e.Seq, Type: e.Type, Data: data}
}

func pipelineEntry(e segment.Event) Entry {
	out := Entry{Type: string(e.Type), Time: e.Time, RunID: e.RunID}
	switch e.Type {
	case segment.EventLanguageDetected:
		out.Language, out.Confidence = e.Language, e.Confidence
	case segment.EventProgress:
		p := e.Percent
		out.Percent = &p
	case segment.EventSegmentReady:
		s := Summarize(e.Segment)
		out.Segment = &s
		idx := e.Segment.Index
		out.SegmentIndex = &idx
	}
	if e.Err != nil {
		out.Code, out.Message = errorCode(e.Err), errors.Message(e.Err)
	}
	return out
}

func sessionEntry(runID string, e segment.SessionEvent) Entry {
	idx := e.SegmentIndex
	out := Entry{
		Type:         string(e.Type),
		Time:         time.Now(),
		RunID:        runID,
		SegmentIndex: &idx,
		SessionID:    e.SessionID,
		Action:       e.Action.String(),
		Reason:       e.Reason,
		Samples:      e.Samples,
	}
	if e.Err != nil {
		out.Code, out.Message = errorCode(e.Err), errors.Message(e.Err)
	}
	return out
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(errors.ErrCodeInternal)
}
