package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kbukum/shadowkit/audio"
)

// ErrDevice is the error the fakes return when told to fail.
var ErrDevice = errors.New("fake device failure")

// OutputDevice is a fake audio.OutputDevice that records every frame.
type OutputDevice struct {
	mu sync.Mutex
	// OpenErr makes OpenOutput fail.
	OpenErr error
	// FailWriteAt makes the n-th write (1-based, per stream) fail; 0 never fails.
	FailWriteAt int
	// WriteDelay simulates device latency per chunk.
	WriteDelay time.Duration
	// Gate, when non-nil, blocks every write until it can receive.
	Gate chan struct{}

	opens  int
	closes int
	frames [][]float32
	rates  []int
}

// NewOutputDevice returns a fake output device that accepts everything.
func NewOutputDevice() *OutputDevice { return &OutputDevice{} }

func (d *OutputDevice) OpenOutput(_ context.Context, rate, chunkSize int) (audio.OutputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.opens++
	d.rates = append(d.rates, rate)
	return &outputStream{dev: d, chunk: chunkSize}, nil
}

// Opens returns how many streams were opened.
func (d *OutputDevice) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Closes returns how many streams were closed.
func (d *OutputDevice) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Frames returns copies of all written frames in order.
func (d *OutputDevice) Frames() [][]float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]float32, len(d.frames))
	copy(out, d.frames)
	return out
}

// Written concatenates every written frame.
func (d *OutputDevice) Written() []float32 {
	var out []float32
	for _, f := range d.Frames() {
		out = append(out, f...)
	}
	return out
}

type outputStream struct {
	dev    *OutputDevice
	chunk  int
	writes int
	closed bool
}

func (s *outputStream) Write(frame []float32) error {
	if s.dev.Gate != nil {
		<-s.dev.Gate
	}
	if s.dev.WriteDelay > 0 {
		time.Sleep(s.dev.WriteDelay)
	}
	s.writes++
	if s.dev.FailWriteAt > 0 && s.writes == s.dev.FailWriteAt {
		return ErrDevice
	}
	if len(frame) != s.chunk {
		return errors.New("frame size does not match chunk size")
	}
	cp := make([]float32, len(frame))
	copy(cp, frame)
	s.dev.mu.Lock()
	s.dev.frames = append(s.dev.frames, cp)
	s.dev.mu.Unlock()
	return nil
}

func (s *outputStream) Close() error {
	if s.closed {
		return errors.New("stream closed twice")
	}
	s.closed = true
	s.dev.mu.Lock()
	s.dev.closes++
	s.dev.mu.Unlock()
	return nil
}

// InputDevice is a fake audio.InputDevice producing constant-valued frames.
type InputDevice struct {
	mu sync.Mutex
	// OpenErr makes OpenInput fail.
	OpenErr error
	// Value fills every captured sample.
	Value float32
	// FailReads lists 1-based read numbers (per stream) that fail.
	FailReads map[int]bool
	// FailAllReads makes every read fail.
	FailAllReads bool
	// ReadDelay simulates the time a chunk takes to arrive.
	ReadDelay time.Duration
	// Gate, when non-nil, blocks every read until it can receive.
	Gate chan struct{}

	opens  int
	closes int
	reads  int
}

// NewInputDevice returns a fake input device that produces samples of value.
func NewInputDevice(value float32) *InputDevice {
	return &InputDevice{Value: value, ReadDelay: time.Millisecond}
}

func (d *InputDevice) OpenInput(_ context.Context, _, _ int) (audio.InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.opens++
	return &inputStream{dev: d}, nil
}

// Opens returns how many streams were opened.
func (d *InputDevice) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Closes returns how many streams were closed.
func (d *InputDevice) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Reads returns the total number of read calls across streams.
func (d *InputDevice) Reads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

type inputStream struct {
	dev   *InputDevice
	reads int
}

func (s *inputStream) Read(frame []float32) error {
	if s.dev.Gate != nil {
		<-s.dev.Gate
	}
	if s.dev.ReadDelay > 0 {
		time.Sleep(s.dev.ReadDelay)
	}
	s.reads++
	s.dev.mu.Lock()
	s.dev.reads++
	s.dev.mu.Unlock()
	if s.dev.FailAllReads || s.dev.FailReads[s.reads] {
		return ErrDevice
	}
	for i := range frame {
		frame[i] = s.dev.Value
	}
	return nil
}

func (s *inputStream) Close() error {
	s.dev.mu.Lock()
	s.dev.closes++
	s.dev.mu.Unlock()
	return nil
}
