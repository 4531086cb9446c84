package segment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
	"github.com/kbukum/shadowkit/pipeline"
	"github.com/kbukum/shadowkit/transcription"
)

// Decoder turns an audio file into mono samples at rate.
type Decoder interface {
	Decode(ctx context.Context, path string, rate int) (*audio.SampleBuffer, error)
}

// PipelineConfig holds run defaults.
type PipelineConfig struct {
	// SampleRate is the decode rate and the reference rate for slicing.
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gt=0"`
	// ModelSize is used when a Request leaves it empty.
	ModelSize transcription.ModelSize `yaml:"model_size" mapstructure:"model_size" validate:"omitempty,oneof=tiny base small medium large"`
	// Language forces a language code when a Request leaves it empty.
	Language string `yaml:"language" mapstructure:"language"`
	// EmitInterval spaces out segment events. Cancel interrupts the wait.
	EmitInterval time.Duration `yaml:"emit_interval" mapstructure:"emit_interval" validate:"gte=0"`
}

// DefaultPipelineConfig returns 16 kHz decoding with the small model.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{SampleRate: 16000, ModelSize: transcription.DefaultModelSize}
}

// ApplyDefaults fills zero fields.
func (c *PipelineConfig) ApplyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.ModelSize == "" {
		c.ModelSize = transcription.DefaultModelSize
	}
}

// Request describes one run.
type Request struct {
	Path      string
	ModelSize transcription.ModelSize
	Language  string
}

// Pipeline decodes, transcribes and segments audio files. One Pipeline can
// serve any number of concurrent runs.
type Pipeline struct {
	decoder   Decoder
	adapter   transcription.Adapter
	cfg       PipelineConfig
	extractor Extractor
	opts      options
}

// NewPipeline creates a Pipeline.
func NewPipeline(decoder Decoder, adapter transcription.Adapter, cfg PipelineConfig, opts ...Option) *Pipeline {
	cfg.ApplyDefaults()
	return &Pipeline{
		decoder:   decoder,
		adapter:   adapter,
		cfg:       cfg,
		extractor: Extractor{Rate: cfg.SampleRate},
		opts:      buildOptions("segment.pipeline", opts),
	}
}

// Start launches a run on its own goroutine and returns its handle at once.
// Cancelling ctx has the same effect as Run.Cancel. obs may be nil.
func (p *Pipeline) Start(ctx context.Context, req Request, obs Observer) *Run {
	if req.ModelSize == "" {
		req.ModelSize = p.cfg.ModelSize
	}
	if req.Language == "" {
		req.Language = p.cfg.Language
	}
	if obs == nil {
		obs = ObserverFunc(func(Event) {})
	}
	ctx, cancel := context.WithCancel(ctx)
	r := newRun(uuid.NewString(), req, cancel)
	go p.run(ctx, r, obs)
	return r
}

type step struct {
	index   int
	segment *Segment
}

func (p *Pipeline) run(ctx context.Context, r *Run, obs Observer) {
	defer close(r.done)
	defer r.cancel()

	req := r.request
	ctx = logger.ContextWithRunID(ctx, r.id)
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun, trace.WithAttributes(
		attribute.String(observability.AttrRunID, r.id),
		attribute.String(observability.AttrSourcePath, req.Path),
		attribute.String(observability.AttrModelSize, string(req.ModelSize)),
	))
	defer span.End()
	log := p.opts.log.WithContext(ctx)
	log.Info("transcription run started", logger.Fields(logger.FieldPath, req.Path, "model_size", string(req.ModelSize)))

	err := p.process(ctx, r, obs, log)

	var (
		state   RunState
		event   = Event{Type: EventFinished}
		outcome string
	)
	switch {
	case r.stopping(ctx) || errors.HasCode(err, errors.ErrCodeCancelled):
		state, outcome = RunCancelled, "cancelled"
		event = Event{Type: EventCancelled, Err: errors.Cancelled("transcription run")}
		log.Info("transcription run cancelled")
	case err != nil:
		state, outcome = RunFailed, "failed"
		event = Event{Type: EventFailed, Err: err}
		observability.SetSpanError(ctx, err)
		log.Error("transcription run failed", logger.ErrorFields("run", err))
	default:
		state, outcome = RunFinished, "finished"
		log.Info("transcription run finished", logger.Fields("segments", len(r.Segments())))
	}
	span.SetAttributes(attribute.String(observability.AttrOutcome, outcome))
	p.opts.metrics.RecordPipelineRun(ctx, outcome, time.Since(r.startedAt))

	r.state.Store(int32(state))
	r.deliver(obs, event)
}

// process runs decode, transcription and segmentation. It returns early
// with a nil error when the run is cancelled between steps.
func (p *Pipeline) process(ctx context.Context, r *Run, obs Observer, log *logger.Logger) error {
	req := r.request
	waveform, err := p.decoder.Decode(ctx, req.Path, p.cfg.SampleRate)
	if err != nil {
		return err
	}
	log.Debug("decoded", logger.Fields(logger.FieldSamples, waveform.Len(), logger.FieldSampleRate, waveform.Rate()))

	res, err := p.adapter.Transcribe(ctx, transcription.Request{
		AudioPath:      req.Path,
		ModelSize:      req.ModelSize,
		Language:       req.Language,
		WordTimestamps: true,
	})
	if err != nil {
		return err
	}

	if !r.emit(ctx, obs, Event{Type: EventLanguageDetected, Language: res.Language, Confidence: res.Confidence()}) {
		return nil
	}

	total := len(res.Spans)
	if total == 0 {
		r.emit(ctx, obs, Event{Type: EventProgress, Percent: 100})
		return nil
	}

	steps := make([]int, total)
	for i := range steps {
		steps[i] = i
	}
	segments := pipeline.Map(pipeline.Pace(pipeline.FromSlice(steps), p.cfg.EmitInterval),
		func(_ context.Context, i int) (step, error) {
			seg, err := p.extractor.Extract(i, res.Spans[i], waveform)
			if err != nil {
				log.Warn("skipping unusable span", logger.Fields(logger.FieldSegmentIndex, i, logger.FieldError, err.Error()))
				return step{index: i}, nil
			}
			return step{index: i, segment: seg}, nil
		})
	segments = pipeline.Tap(segments, func(_ context.Context, s step) error {
		if s.segment != nil {
			log.Debug("segment extracted", logger.Fields(logger.FieldSegmentIndex, s.index, logger.FieldSamples, s.segment.Audio.Len()))
		}
		return nil
	})

	err = pipeline.ForEach(ctx, segments, func(ctx context.Context, s step) error {
		if s.segment != nil {
			if !r.emit(ctx, obs, Event{Type: EventSegmentReady, Segment: s.segment}) {
				return errStopped
			}
			p.opts.metrics.RecordSegment(ctx)
		}
		if !r.emit(ctx, obs, Event{Type: EventProgress, Percent: (s.index + 1) * 100 / total}) {
			return errStopped
		}
		return nil
	})
	if err == errStopped || r.stopping(ctx) {
		return nil
	}
	return err
}

var errStopped = errors.Cancelled("segment delivery")

// emit delivers a non-terminal event unless the run is being cancelled.
func (r *Run) emit(ctx context.Context, obs Observer, e Event) bool {
	if r.stopping(ctx) {
		return false
	}
	r.deliver(obs, e)
	return true
}

func (r *Run) deliver(obs Observer, e Event) {
	e.RunID = r.id
	e.Time = time.Now()
	r.record(e)
	obs.OnEvent(e)
}
