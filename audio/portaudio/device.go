// Package portaudio implements the audio device interfaces on the system's
// default PortAudio devices using blocking streams.
package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/observability"
)

// Device opens mono float32 streams on the default input and output devices.
// PortAudio is initialised per stream and terminated when the stream closes,
// so no handle outlives a session.
type Device struct{}

// New returns a Device.
func New() *Device { return &Device{} }

var (
	_ audio.OutputDevice = (*Device)(nil)
	_ audio.InputDevice  = (*Device)(nil)
)

// OpenOutput opens and starts a playback stream.
func (d *Device) OpenOutput(_ context.Context, rate, chunkSize int) (audio.OutputStream, error) {
	buf := make([]float32, chunkSize)
	s, err := open(0, 1, rate, buf)
	if err != nil {
		return nil, err
	}
	return &outputStream{stream: s, buf: buf}, nil
}

// OpenInput opens and starts a capture stream.
func (d *Device) OpenInput(_ context.Context, rate, chunkSize int) (audio.InputStream, error) {
	buf := make([]float32, chunkSize)
	s, err := open(1, 0, rate, buf)
	if err != nil {
		return nil, err
	}
	return &inputStream{stream: s, buf: buf}, nil
}

func open(in, out, rate int, buf []float32) (*stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	ps, err := portaudio.OpenDefaultStream(in, out, float64(rate), len(buf), buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open default stream: %w", err)
	}
	if err := ps.Start(); err != nil {
		_ = ps.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return &stream{ps: ps}, nil
}

// stream owns one PortAudio stream plus the Initialize it required.
type stream struct {
	ps   *portaudio.Stream
	once sync.Once
	err  error
}

func (s *stream) close() error {
	s.once.Do(func() {
		stopErr := s.ps.Stop()
		closeErr := s.ps.Close()
		termErr := portaudio.Terminate()
		for _, err := range []error{stopErr, closeErr, termErr} {
			if err != nil {
				s.err = err
				break
			}
		}
	})
	return s.err
}

type outputStream struct {
	stream *stream
	buf    []float32
}

func (o *outputStream) Write(frame []float32) error {
	copy(o.buf, frame)
	return o.stream.ps.Write()
}

func (o *outputStream) Close() error { return o.stream.close() }

type inputStream struct {
	stream *stream
	buf    []float32
}

func (i *inputStream) Read(frame []float32) error {
	if err := i.stream.ps.Read(); err != nil {
		return err
	}
	copy(frame, i.buf)
	return nil
}

func (i *inputStream) Close() error { return i.stream.close() }

// CheckHealth reports whether default input and output devices exist.
func (d *Device) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{Name: "audio-device", Status: observability.HealthStatusUp, Details: map[string]string{}}
	if err := portaudio.Initialize(); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}
	defer func() { _ = portaudio.Terminate() }()

	if out, err := portaudio.DefaultOutputDevice(); err == nil {
		h.Details["output"] = out.Name
	} else {
		h.Status = observability.HealthStatusDegraded
		h.Message = "no default output device"
	}
	if in, err := portaudio.DefaultInputDevice(); err == nil {
		h.Details["input"] = in.Name
	} else {
		h.Status = observability.HealthStatusDegraded
		h.Message = "no default input device"
	}
	return h
}
