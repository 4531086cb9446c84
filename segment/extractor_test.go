package segment

import (
	"math"
	"testing"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/transcription"
)

func ramp(t *testing.T, n, rate int) *audio.SampleBuffer {
	t.Helper()
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(i) / float32(n)
	}
	buf, err := audio.NewSampleBuffer(s, rate)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestExtractor_SampleCounts(t *testing.T) {
	wave := ramp(t, 48000, 16000)
	e := Extractor{Rate: 16000}

	tests := []struct {
		name string
		span transcription.Span
		want int
	}{
		{"first second", transcription.Span{Start: 0, End: 1, Text: "hello"}, 16000},
		{"one and a half", transcription.Span{Start: 1, End: 2.5, Text: "world"}, 24000},
		{"rounding", transcription.Span{Start: 0.00003, End: 0.00009, Text: "x"}, 1},
		{"clamped at end", transcription.Span{Start: 2.5, End: 4, Text: "tail"}, 8000},
		{"entirely past end", transcription.Span{Start: 5, End: 6, Text: "gone"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seg, err := e.Extract(0, tc.span, wave)
			if err != nil {
				t.Fatal(err)
			}
			if got := seg.Audio.Len(); got != tc.want {
				t.Errorf("samples = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestExtractor_CopiesTheRightSamples(t *testing.T) {
	wave := ramp(t, 100, 10)
	seg, err := Extractor{}.Extract(7, transcription.Span{Start: 2, End: 3, Text: "  padded text \n"}, wave)
	if err != nil {
		t.Fatal(err)
	}
	if seg.Index != 7 || seg.Text != "padded text" || seg.Start != 2 || seg.End != 3 {
		t.Errorf("segment = %+v", seg)
	}
	got := seg.Audio.Samples()
	want := wave.Samples()[20:30]
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
	if seg.Audio.Rate() != 10 {
		t.Errorf("rate = %d", seg.Audio.Rate())
	}
	if seg.HasRecording() {
		t.Error("new segment should have no recording")
	}
}

func TestExtractor_RejectsDegenerateSpans(t *testing.T) {
	wave := ramp(t, 16000, 16000)
	for _, span := range []transcription.Span{
		{Start: 1, End: 1},
		{Start: 0.5, End: 0.2},
		{Start: -0.1, End: 0.5},
		{Start: 0, End: math.Inf(1)},
	} {
		if _, err := (Extractor{Rate: 16000}).Extract(0, span, wave); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
			t.Errorf("span %+v: err = %v", span, err)
		}
	}
	if _, err := (Extractor{}).Extract(0, transcription.Span{Start: 0, End: 1}, nil); err == nil {
		t.Error("expected error for missing waveform")
	}
}

func TestSegment_RecordingIsReplaced(t *testing.T) {
	seg := &Segment{}
	a := ramp(t, 10, 10)
	b := ramp(t, 20, 10)
	seg.SetRecording(a)
	seg.SetRecording(b)
	if seg.Recording() != b {
		t.Error("latest recording should win")
	}
}
