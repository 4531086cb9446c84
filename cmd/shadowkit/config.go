package main

import (
	"fmt"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/audio/ffmpeg"
	"github.com/kbukum/shadowkit/config"
	"github.com/kbukum/shadowkit/observability"
	"github.com/kbukum/shadowkit/segment"
	"github.com/kbukum/shadowkit/server"
	"github.com/kbukum/shadowkit/transcription/whispercli"
	"github.com/kbukum/shadowkit/version"
)

const serviceName = "shadowkit"

// TranscriptionConfig selects the adapter and holds per-adapter settings.
// Adapters is keyed by adapter name and passed to the registry factories.
type TranscriptionConfig struct {
	Adapter  string                    `yaml:"adapter" mapstructure:"adapter" validate:"required,oneof=whisper whispercli"`
	Adapters map[string]map[string]any `yaml:"adapters" mapstructure:"adapters"`
	// MaxConcurrent bounds simultaneous Transcribe calls. Defaults to 1.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
}

// Config is the shadowkit binary configuration.
type Config struct {
	config.BaseConfig `mapstructure:",squash"`

	Server        server.Config              `yaml:"server" mapstructure:"server"`
	Audio         audio.Config               `yaml:"audio" mapstructure:"audio"`
	Pipeline      segment.PipelineConfig     `yaml:"pipeline" mapstructure:"pipeline"`
	Decoder       ffmpeg.Config              `yaml:"decoder" mapstructure:"decoder"`
	Transcription TranscriptionConfig        `yaml:"transcription" mapstructure:"transcription"`
	Tracing       observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics       observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.BaseConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Audio.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Decoder.ApplyDefaults()
	if c.Transcription.Adapter == "" {
		c.Transcription.Adapter = whispercli.AdapterName
	}
	if c.Transcription.MaxConcurrent == 0 {
		c.Transcription.MaxConcurrent = 1
	}

	c.applyTelemetryDefaults()
}

// applyTelemetryDefaults inherits identity from the base section and the
// exporter endpoint from the package defaults.
func (c *Config) applyTelemetryDefaults() {
	tracing := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = tracing.ServiceName
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = c.Version
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = tracing.Endpoint
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = tracing.SampleRate
	}

	meter := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = meter.ServiceName
	}
	if c.Metrics.ServiceVersion == "" {
		c.Metrics.ServiceVersion = c.Version
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = meter.Endpoint
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = meter.Interval
	}
}

// Validate runs the base checks and the struct tag rules.
func (c *Config) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return fmt.Errorf("base config: %w", err)
	}
	return config.Validate(c)
}

// adapterConfig returns the settings map for the selected adapter.
func (c *Config) adapterConfig() map[string]any {
	if m, ok := c.Transcription.Adapters[c.Transcription.Adapter]; ok {
		return m
	}
	return map[string]any{}
}
