package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/transcription/whispercli"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Name != serviceName {
		t.Errorf("Name = %q, want %q", cfg.Name, serviceName)
	}
	if cfg.Transcription.Adapter != whispercli.AdapterName {
		t.Errorf("Adapter = %q, want %q", cfg.Transcription.Adapter, whispercli.AdapterName)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Pipeline.SampleRate != 16000 {
		t.Errorf("sample rates = %d/%d, want 16000", cfg.Audio.SampleRate, cfg.Pipeline.SampleRate)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Tracing.Environment != "development" || cfg.Metrics.Environment != "development" {
		t.Errorf("telemetry environment not inherited: %q/%q", cfg.Tracing.Environment, cfg.Metrics.Environment)
	}
	if cfg.Tracing.ServiceVersion != cfg.Version {
		t.Errorf("Tracing.ServiceVersion = %q, want %q", cfg.Tracing.ServiceVersion, cfg.Version)
	}
	if cfg.Metrics.Interval != 15*time.Second {
		t.Errorf("Metrics.Interval = %v", cfg.Metrics.Interval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestConfigValidateRejectsUnknownAdapter(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Transcription.Adapter = "vosk"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("code = %v, want INVALID_INPUT", err)
	}
}

func TestConfigValidateRejectsBadChunkSize(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Audio.ChunkSize = 8

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for chunk size")
	}
}

func TestAdapterConfig(t *testing.T) {
	cfg := Config{Transcription: TranscriptionConfig{
		Adapter: "whisper",
		Adapters: map[string]map[string]any{
			"whisper": {"url": "http://localhost:9000"},
		},
	}}
	if got := cfg.adapterConfig()["url"]; got != "http://localhost:9000" {
		t.Errorf("url = %v", got)
	}

	cfg.Transcription.Adapter = "whispercli"
	if got := cfg.adapterConfig(); got == nil || len(got) != 0 {
		t.Errorf("missing section should give an empty map, got %v", got)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadowkit.yml")
	content := `
name: shadowkit
environment: production
server:
  port: 9090
audio:
  chunk_size: 2048
pipeline:
  model_size: base
  emit_interval: 250ms
transcription:
  adapter: whisper
  adapters:
    whisper:
      url: http://stt:9000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Audio.ChunkSize != 2048 {
		t.Errorf("ChunkSize = %d, want 2048", cfg.Audio.ChunkSize)
	}
	if cfg.Pipeline.EmitInterval != 250*time.Millisecond {
		t.Errorf("EmitInterval = %v", cfg.Pipeline.EmitInterval)
	}
	if cfg.Transcription.Adapter != "whisper" {
		t.Errorf("Adapter = %q", cfg.Transcription.Adapter)
	}
	if cfg.adapterConfig()["url"] != "http://stt:9000" {
		t.Errorf("adapter config = %v", cfg.adapterConfig())
	}
	if cfg.Debug {
		t.Error("production must not enable debug")
	}
}

func TestTranscriptionConcurrencyDefault(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Transcription.MaxConcurrent != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", cfg.Transcription.MaxConcurrent)
	}
}
