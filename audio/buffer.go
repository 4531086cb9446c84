package audio

import (
	"math"
	"time"

	"github.com/kbukum/shadowkit/errors"
)

// SampleBuffer is an immutable run of mono float32 samples at a fixed rate.
// It may be read concurrently by any number of goroutines.
type SampleBuffer struct {
	samples []float32
	rate    int
}

// NewSampleBuffer copies samples into a new buffer. The rate must be positive.
func NewSampleBuffer(samples []float32, rate int) (*SampleBuffer, error) {
	if rate <= 0 {
		return nil, errors.InvalidInput("rate", "sample rate must be positive")
	}
	owned := make([]float32, len(samples))
	copy(owned, samples)
	return &SampleBuffer{samples: owned, rate: rate}, nil
}

// wrap takes ownership of samples without copying. Callers must not keep
// a reference to the slice.
func wrap(samples []float32, rate int) *SampleBuffer {
	return &SampleBuffer{samples: samples, rate: rate}
}

// Len returns the number of samples.
func (b *SampleBuffer) Len() int { return len(b.samples) }

// Rate returns the sample rate in Hz.
func (b *SampleBuffer) Rate() int { return b.rate }

// Duration returns the playback length.
func (b *SampleBuffer) Duration() time.Duration {
	return time.Duration(float64(len(b.samples)) / float64(b.rate) * float64(time.Second))
}

// Samples returns a copy of the samples.
func (b *SampleBuffer) Samples() []float32 {
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Peak returns the largest absolute sample value.
func (b *SampleBuffer) Peak() float32 {
	var peak float32
	for _, s := range b.samples {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}
	return peak
}

// Normalized returns a buffer whose samples lie in [-1, 1]. When the peak
// exceeds 1 every sample is divided by the peak; otherwise b itself is
// returned, so normalizing twice is a no-op.
func (b *SampleBuffer) Normalized() *SampleBuffer {
	peak := b.Peak()
	if peak <= 1 {
		return b
	}
	out := make([]float32, len(b.samples))
	for i, s := range b.samples {
		out[i] = s / peak
	}
	return wrap(out, b.rate)
}

// Slice copies samples [from, to) into a new buffer. Bounds are clamped to
// [0, Len()]; an inverted range yields an empty buffer.
func (b *SampleBuffer) Slice(from, to int) *SampleBuffer {
	from = clamp(from, 0, len(b.samples))
	to = clamp(to, 0, len(b.samples))
	if to < from {
		to = from
	}
	out := make([]float32, to-from)
	copy(out, b.samples[from:to])
	return wrap(out, b.rate)
}

// SampleIndex converts seconds to the nearest sample index at this rate.
func (b *SampleBuffer) SampleIndex(seconds float64) int {
	return int(math.Round(seconds * float64(b.rate)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
