package audio

import (
	"context"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
)

// RecordingHandler receives the lifecycle of one recording session. Any
// field may be nil. Exactly one of OnFinished or OnError fires per session.
type RecordingHandler struct {
	OnStarted  func()
	OnFinished func(*SampleBuffer)
	OnError    func(error)
}

// Source captures audio from an input device, one session at a time.
type Source struct {
	device InputDevice
	opts   options
	slot
}

// NewSource creates a Source over device.
func NewSource(device InputDevice, opts ...Option) *Source {
	return &Source{device: device, opts: buildOptions("audio.source", opts)}
}

// Start begins asynchronous capture and returns immediately. An active
// recording is asked to stop first and delivers its own terminal event.
func (s *Source) Start(h RecordingHandler) error {
	prev, sess := s.begin()
	go s.run(prev, sess, h)
	return nil
}

// Stop ends the active recording at the next chunk boundary; whatever was
// captured is delivered through OnFinished.
func (s *Source) Stop() { s.stop() }

// IsRecording reports whether a session is starting or recording.
func (s *Source) IsRecording() bool { return s.active() }

// State returns the state of the current session.
func (s *Source) State() State { return s.state() }

// Close stops any recording and waits for its terminal event or ctx.
func (s *Source) Close(ctx context.Context) error { return s.shutdown(ctx) }

func (s *Source) run(prev, sess *session, h RecordingHandler) {
	// Deferred in reverse: the terminal handler has run and the stream is
	// closed before the slot frees up and waiters on done proceed.
	defer close(sess.done)
	defer s.release(sess)
	log := s.opts.log.WithFields(logger.Fields(logger.FieldSessionID, sess.id))
	rate := s.opts.cfg.SampleRate

	if !awaitTerminal(prev, s.opts.cfg.RecordingStopTimeout) {
		log.Warn("previous recording did not stop in time, continuing", logger.Fields("timeout", s.opts.cfg.RecordingStopTimeout.String()))
	}
	if sess.stopRequested() {
		s.finish(sess, h, nil, nil)
		return
	}

	stream, err := s.device.OpenInput(sess.ctx, rate, s.opts.cfg.ChunkSize)
	if err != nil {
		s.opts.metrics.RecordDeviceError(context.Background(), DirectionInput)
		s.finish(sess, h, nil, errors.DeviceOpenFailed(DirectionInput, err))
		return
	}
	defer func() {
		if err := stream.Close(); err != nil {
			log.Warn("closing input stream failed", logger.ErrorFields("close", err))
		}
	}()

	sess.activate()
	log.Debug("recording started", logger.Fields(logger.FieldSampleRate, rate))
	if h.OnStarted != nil {
		h.OnStarted()
	}

	samples, lastErr := s.capture(sess, stream, log)
	if len(samples) == 0 {
		s.finish(sess, h, nil, lastErr)
		return
	}
	s.finish(sess, h, wrap(samples, rate), nil)
}

// capture reads chunks until stop is requested or MaxReadFailures reads in
// a row fail. A failed read drops that chunk and the loop carries on.
func (s *Source) capture(sess *session, stream InputStream, log *logger.Logger) ([]float32, error) {
	size := s.opts.cfg.ChunkSize
	frame := make([]float32, size)
	var (
		acc      []float32
		failures int
		lastErr  error
	)
	for !sess.stopRequested() {
		if err := stream.Read(frame); err != nil {
			failures++
			lastErr = err
			s.opts.metrics.RecordDeviceError(context.Background(), DirectionInput)
			log.Warn("read failed, chunk skipped", logger.Fields("consecutive_failures", failures, logger.FieldError, err.Error()))
			if failures >= s.opts.cfg.MaxReadFailures {
				log.Error("input device keeps failing, ending recording", logger.Fields("consecutive_failures", failures))
				break
			}
			continue
		}
		failures = 0
		acc = append(acc, frame...)
	}
	return acc, lastErr
}

// finish fires exactly one terminal handler. The session still owns the
// slot, so a Start issued from the handler waits for it. A nil
// buffer without err means nothing was captured.
func (s *Source) finish(sess *session, h RecordingHandler, buf *SampleBuffer, err error) {
	log := s.opts.log.WithFields(logger.Fields(logger.FieldSessionID, sess.id))

	if buf == nil {
		if !errors.IsAppError(err) {
			empty := errors.EmptyRecording()
			if err != nil {
				empty.WithCause(err)
			}
			err = empty
		}
		log.Warn("recording failed", logger.ErrorFields("record", err))
		s.opts.metrics.RecordAudioSession(context.Background(), "recording", "error")
		if h.OnError != nil {
			h.OnError(err)
		}
		return
	}

	log.Debug("recording finished", logger.Fields(logger.FieldSamples, buf.Len()))
	s.opts.metrics.RecordAudioSession(context.Background(), "recording", "completed")
	s.opts.metrics.RecordRecording(context.Background(), buf.Duration().Seconds())
	if h.OnFinished != nil {
		h.OnFinished(buf)
	}
}
