package transcription

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
)

// Middleware wraps an Adapter with cross-cutting behaviour.
type Middleware func(Adapter) Adapter

// Chain composes middlewares; the first is outermost.
//
// Chain(a, b, c)(adapter) is equivalent to a(b(c(adapter))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Adapter) Adapter {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// wrapped forwards Name and IsAvailable to the inner adapter.
type wrapped struct{ inner Adapter }

func (w wrapped) Name() string                         { return w.inner.Name() }
func (w wrapped) IsAvailable(ctx context.Context) bool { return w.inner.IsAvailable(ctx) }

// WithLogging logs each Transcribe call with its duration and outcome.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner Adapter) Adapter {
		return &loggingAdapter{wrapped{inner}, log.WithComponent("transcription")}
	}
}

type loggingAdapter struct {
	wrapped
	log *logger.Logger
}

func (l *loggingAdapter) Transcribe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := l.inner.Transcribe(ctx, req)
	fields := logger.Fields(
		"adapter", l.inner.Name(),
		logger.FieldPath, req.AudioPath,
		"model_size", string(req.ModelSize),
	)
	log := l.log.WithContext(ctx)
	if err != nil {
		log.Error("transcription failed", fields, logger.DurationFields("transcribe", time.Since(start)), logger.Fields(logger.FieldError, err.Error()))
		return nil, err
	}
	log.Info("transcription done", fields, logger.DurationFields("transcribe", time.Since(start)), logger.Fields(
		"language", res.Language,
		"spans", len(res.Spans),
	))
	return res, nil
}

// WithTracing wraps each call in a transcription span.
func WithTracing() Middleware {
	return func(inner Adapter) Adapter {
		return &tracingAdapter{wrapped{inner}}
	}
}

type tracingAdapter struct{ wrapped }

func (t *tracingAdapter) Transcribe(ctx context.Context, req Request) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe, trace.WithAttributes(
		attribute.String(observability.AttrAdapter, t.inner.Name()),
		attribute.String(observability.AttrModelSize, string(req.ModelSize)),
		attribute.String(observability.AttrSourcePath, req.AudioPath),
	))
	defer span.End()

	res, err := t.inner.Transcribe(ctx, req)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(observability.AttrLanguage, res.Language),
		attribute.Int(observability.AttrSpanCount, len(res.Spans)),
	)
	return res, nil
}

// WithMetrics records call counts and latency.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(inner Adapter) Adapter {
		return &metricsAdapter{wrapped{inner}, metrics}
	}
}

type metricsAdapter struct {
	wrapped
	metrics *observability.Metrics
}

func (m *metricsAdapter) Transcribe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := m.inner.Transcribe(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordAdapterCall(ctx, m.inner.Name(), status, time.Since(start))
	return res, err
}

// Health adapts an Adapter to observability.HealthChecker.
func Health(a Adapter) observability.HealthChecker {
	return healthChecker{a}
}

type healthChecker struct{ a Adapter }

func (h healthChecker) CheckHealth(ctx context.Context) observability.Health {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if h.a.IsAvailable(ctx) {
		return observability.Health{Name: "transcription:" + h.a.Name(), Status: observability.HealthStatusUp}
	}
	return observability.Health{
		Name:    "transcription:" + h.a.Name(),
		Status:  observability.HealthStatusDegraded,
		Message: "backend not reachable",
	}
}
