package audio

import (
	"context"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
)

// FinishReason tells a playback handler why the session ended normally.
type FinishReason int

const (
	// FinishCompleted means every chunk was written.
	FinishCompleted FinishReason = iota
	// FinishStopped means Stop or a superseding Play ended the session early.
	FinishStopped
)

func (r FinishReason) String() string {
	if r == FinishStopped {
		return "stopped"
	}
	return "completed"
}

// PlaybackHandler receives the lifecycle of one playback session. Any field
// may be nil. Exactly one of OnFinished or OnError fires per session.
type PlaybackHandler struct {
	OnStarted  func()
	OnFinished func(FinishReason)
	OnError    func(error)
}

// Sink plays SampleBuffers on an output device, one session at a time, each
// on its own goroutine.
type Sink struct {
	device OutputDevice
	opts   options
	slot
}

// NewSink creates a Sink over device.
func NewSink(device OutputDevice, opts ...Option) *Sink {
	return &Sink{device: device, opts: buildOptions("audio.sink", opts)}
}

// Play starts asynchronous playback of buf and returns immediately. An
// active session is asked to stop first; the new one opens the device only
// after the old one has ended or PlaybackStopTimeout has passed.
func (s *Sink) Play(buf *SampleBuffer, h PlaybackHandler) error {
	if buf == nil {
		return errors.InvalidInput("buffer", "nothing to play")
	}
	prev, sess := s.begin()
	go s.run(prev, sess, buf, h)
	return nil
}

// Stop requests the active session to end at the next chunk boundary.
func (s *Sink) Stop() { s.stop() }

// IsPlaying reports whether a session is starting or playing.
func (s *Sink) IsPlaying() bool { return s.active() }

// State returns the state of the current session.
func (s *Sink) State() State { return s.state() }

// Close stops any playback and waits for its terminal event or ctx.
func (s *Sink) Close(ctx context.Context) error { return s.shutdown(ctx) }

func (s *Sink) run(prev, sess *session, buf *SampleBuffer, h PlaybackHandler) {
	// Deferred in reverse: the terminal handler has run and the stream is
	// closed before the slot frees up and waiters on done proceed.
	defer close(sess.done)
	defer s.release(sess)
	log := s.opts.log.WithFields(logger.Fields(logger.FieldSessionID, sess.id))

	if !awaitTerminal(prev, s.opts.cfg.PlaybackStopTimeout) {
		log.Warn("previous playback did not stop in time, continuing", logger.Fields("timeout", s.opts.cfg.PlaybackStopTimeout.String()))
	}
	if sess.stopRequested() {
		s.finish(sess, h, FinishStopped, nil)
		return
	}

	stream, err := s.device.OpenOutput(sess.ctx, buf.Rate(), s.opts.cfg.ChunkSize)
	if err != nil {
		s.opts.metrics.RecordDeviceError(context.Background(), DirectionOutput)
		s.finish(sess, h, 0, errors.DeviceOpenFailed(DirectionOutput, err))
		return
	}
	defer func() {
		if err := stream.Close(); err != nil {
			log.Warn("closing output stream failed", logger.ErrorFields("close", err))
		}
	}()

	sess.activate()
	log.Debug("playback started", logger.Fields(logger.FieldSamples, buf.Len(), logger.FieldSampleRate, buf.Rate()))
	if h.OnStarted != nil {
		h.OnStarted()
	}

	reason, err := s.write(sess, stream, buf.Normalized())
	if err != nil {
		s.opts.metrics.RecordDeviceError(context.Background(), DirectionOutput)
	}
	s.finish(sess, h, reason, err)
}

// write streams buf in ChunkSize frames, zero-padding the last one.
func (s *Sink) write(sess *session, stream OutputStream, buf *SampleBuffer) (FinishReason, error) {
	size := s.opts.cfg.ChunkSize
	frame := make([]float32, size)
	samples := buf.samples
	for off := 0; off < len(samples); off += size {
		if sess.stopRequested() {
			return FinishStopped, nil
		}
		n := copy(frame, samples[off:])
		clear(frame[n:])
		if err := stream.Write(frame); err != nil {
			return 0, errors.DeviceIOFailed(DirectionOutput, err)
		}
	}
	return FinishCompleted, nil
}

// finish fires exactly one terminal handler. The session still owns the
// slot, so a Play issued from the handler waits for it.
func (s *Sink) finish(sess *session, h PlaybackHandler, reason FinishReason, err error) {
	log := s.opts.log.WithFields(logger.Fields(logger.FieldSessionID, sess.id))
	if err != nil {
		log.Error("playback failed", logger.ErrorFields("play", err))
		s.opts.metrics.RecordAudioSession(context.Background(), "playback", "error")
		if h.OnError != nil {
			h.OnError(err)
		}
		return
	}
	log.Debug("playback finished", logger.Fields(logger.FieldReason, reason.String()))
	s.opts.metrics.RecordAudioSession(context.Background(), "playback", reason.String())
	if h.OnFinished != nil {
		h.OnFinished(reason)
	}
}
