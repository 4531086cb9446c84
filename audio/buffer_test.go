package audio

import (
	"math"
	"testing"
	"time"

	"github.com/kbukum/shadowkit/errors"
)

func TestNewSampleBuffer_RejectsBadRate(t *testing.T) {
	_, err := NewSampleBuffer([]float32{0.1}, 0)
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestNewSampleBuffer_CopiesInput(t *testing.T) {
	src := []float32{0.1, 0.2}
	buf, err := NewSampleBuffer(src, 16000)
	if err != nil {
		t.Fatal(err)
	}
	src[0] = 0.9
	if got := buf.Samples()[0]; got != 0.1 {
		t.Errorf("buffer aliased caller slice: got %v", got)
	}
	out := buf.Samples()
	out[1] = 0.9
	if got := buf.Samples()[1]; got != 0.2 {
		t.Errorf("Samples() leaked internal slice: got %v", got)
	}
}

func TestSampleBuffer_Duration(t *testing.T) {
	buf := wrap(make([]float32, 24000), 16000)
	if got := buf.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got)
	}
}

func TestSampleBuffer_Normalized(t *testing.T) {
	loud := wrap([]float32{2, -4, 1}, 16000)
	norm := loud.Normalized()
	if p := norm.Peak(); p != 1 {
		t.Fatalf("peak after normalize = %v, want 1", p)
	}
	want := []float32{0.5, -1, 0.25}
	for i, v := range norm.Samples() {
		if math.Abs(float64(v-want[i])) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, v, want[i])
		}
	}
	if loud.Peak() != 4 {
		t.Error("Normalized mutated the source buffer")
	}
	if norm.Normalized() != norm {
		t.Error("normalizing a normalized buffer should be a no-op")
	}

	quiet := wrap([]float32{0.5, -1}, 16000)
	if quiet.Normalized() != quiet {
		t.Error("buffer with peak <= 1 should be returned unchanged")
	}
}

func TestSampleBuffer_Slice(t *testing.T) {
	buf := wrap([]float32{0, 1, 2, 3, 4}, 5)
	tests := []struct {
		name     string
		from, to int
		want     []float32
	}{
		{"inside", 1, 3, []float32{1, 2}},
		{"end clamped", 3, 99, []float32{3, 4}},
		{"start clamped", -2, 2, []float32{0, 1}},
		{"inverted", 4, 2, []float32{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := buf.Slice(tc.from, tc.to).Samples()
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}

	s := buf.Slice(0, 2)
	s.samples[0] = 42
	if buf.samples[0] != 0 {
		t.Error("Slice shares memory with the source buffer")
	}
}

func TestSampleBuffer_SampleIndexRounds(t *testing.T) {
	buf := wrap(nil, 16000)
	if got := buf.SampleIndex(1.00003); got != 16000 {
		t.Errorf("SampleIndex(1.00003) = %d, want 16000", got)
	}
	if got := buf.SampleIndex(0.99997); got != 16000 {
		t.Errorf("SampleIndex(0.99997) = %d, want 16000", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SampleRate != 16000 || cfg.ChunkSize != 1024 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.PlaybackStopTimeout != time.Second || cfg.RecordingStopTimeout != 2*time.Second {
		t.Errorf("unexpected timeouts %+v", cfg)
	}
	if cfg.MaxReadFailures != 3 {
		t.Errorf("MaxReadFailures = %d", cfg.MaxReadFailures)
	}
}
