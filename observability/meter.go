package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/shadowkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string        `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName: serviceName,
		Environment: "development",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the shadowkit instruments. A nil *Metrics is valid and
// records nothing, so components can take one unconditionally.
type Metrics struct {
	pipelineRuns     metric.Int64Counter
	pipelineDuration metric.Float64Histogram
	pipelineSegments metric.Int64Counter
	audioSessions    metric.Int64Counter
	deviceErrors     metric.Int64Counter
	recordedSeconds  metric.Float64Histogram
	adapterCalls     metric.Int64Counter
	adapterDuration  metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.pipelineRuns, err = meter.Int64Counter("pipeline.runs",
		metric.WithDescription("Segment pipeline runs by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.runs counter: %w", err)
	}
	if m.pipelineDuration, err = meter.Float64Histogram("pipeline.run.duration",
		metric.WithDescription("Wall time of a segment pipeline run"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.run.duration histogram: %w", err)
	}
	if m.pipelineSegments, err = meter.Int64Counter("pipeline.segments",
		metric.WithDescription("Segments delivered to observers"),
	); err != nil {
		return nil, fmt.Errorf("creating pipeline.segments counter: %w", err)
	}
	if m.audioSessions, err = meter.Int64Counter("audio.sessions",
		metric.WithDescription("Playback and recording sessions by kind and outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating audio.sessions counter: %w", err)
	}
	if m.deviceErrors, err = meter.Int64Counter("audio.device.errors",
		metric.WithDescription("Device open and I/O failures by direction"),
	); err != nil {
		return nil, fmt.Errorf("creating audio.device.errors counter: %w", err)
	}
	if m.recordedSeconds, err = meter.Float64Histogram("audio.recorded.seconds",
		metric.WithDescription("Length of finished recordings"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating audio.recorded.seconds histogram: %w", err)
	}
	if m.adapterCalls, err = meter.Int64Counter("transcription.calls",
		metric.WithDescription("Transcription backend calls by adapter and status"),
	); err != nil {
		return nil, fmt.Errorf("creating transcription.calls counter: %w", err)
	}
	if m.adapterDuration, err = meter.Float64Histogram("transcription.duration",
		metric.WithDescription("Transcription backend latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating transcription.duration histogram: %w", err)
	}
	return &m, nil
}

// RecordPipelineRun records a finished run with outcome finished, failed or cancelled.
func (m *Metrics) RecordPipelineRun(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.pipelineRuns.Add(ctx, 1, attrs)
	m.pipelineDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSegment counts one delivered segment.
func (m *Metrics) RecordSegment(ctx context.Context) {
	if m == nil {
		return
	}
	m.pipelineSegments.Add(ctx, 1)
}

// RecordAudioSession records a terminated session. kind is playback or
// recording; outcome is completed, stopped or error.
func (m *Metrics) RecordAudioSession(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.audioSessions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// RecordDeviceError counts a device failure for direction output or input.
func (m *Metrics) RecordDeviceError(ctx context.Context, direction string) {
	if m == nil {
		return
	}
	m.deviceErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", direction)))
}

// RecordRecording records the length of a delivered recording.
func (m *Metrics) RecordRecording(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.recordedSeconds.Record(ctx, seconds)
}

// RecordAdapterCall records one transcription backend call.
func (m *Metrics) RecordAdapterCall(ctx context.Context, adapter, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.adapterCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("adapter", adapter),
		attribute.String("status", status),
	))
	m.adapterDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("adapter", adapter),
	))
}
