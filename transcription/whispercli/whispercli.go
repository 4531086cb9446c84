// Package whispercli implements transcription.Adapter by running a local
// faster-whisper helper program that prints its result as JSON.
package whispercli

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/process"
	"github.com/kbukum/shadowkit/transcription"
)

// AdapterName is the registered name for the CLI adapter.
const AdapterName = "whispercli"

//go:embed assets/whisper_helper.py
var helperScript []byte

// Config configures the helper invocation.
type Config struct {
	// Python is the interpreter used for the embedded helper.
	Python string `yaml:"python" mapstructure:"python"`
	// Script overrides the embedded helper with a program on disk. It is run
	// directly and must accept the same flags.
	Script      string                  `yaml:"script" mapstructure:"script"`
	ModelSize   transcription.ModelSize `yaml:"model_size" mapstructure:"model_size"`
	Language    string                  `yaml:"language" mapstructure:"language"`
	Device      string                  `yaml:"device" mapstructure:"device"`
	ComputeType string                  `yaml:"compute_type" mapstructure:"compute_type"`
	// GracePeriod between SIGTERM and SIGKILL on cancel.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// Adapter runs the helper once per request.
type Adapter struct {
	cfg Config
}

// New creates a CLI adapter.
func New(cfg Config) *Adapter {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.ModelSize == "" {
		cfg.ModelSize = transcription.DefaultModelSize
	}
	if cfg.Device == "" {
		cfg.Device = "auto"
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = 3 * time.Second
	}
	return &Adapter{cfg: cfg}
}

// Factory builds adapters from a config map.
func Factory() transcription.Factory {
	return func(m map[string]any) (transcription.Adapter, error) {
		var cfg Config
		if err := transcription.DecodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		if cfg.ModelSize != "" {
			size, err := transcription.ParseModelSize(string(cfg.ModelSize))
			if err != nil {
				return nil, err
			}
			cfg.ModelSize = size
		}
		return New(cfg), nil
	}
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return AdapterName }

// IsAvailable reports whether the helper program can be started.
func (a *Adapter) IsAvailable(_ context.Context) bool {
	bin := a.cfg.Python
	if a.cfg.Script != "" {
		bin = a.cfg.Script
	}
	_, err := exec.LookPath(bin)
	return err == nil
}

// Transcribe runs the helper and parses its JSON.
func (a *Adapter) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	res, err := a.transcribe(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Cancelled("transcribe").WithCause(ctx.Err())
		}
		return nil, errors.AdapterFailed(AdapterName, err)
	}
	return res, nil
}

func (a *Adapter) transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	if _, err := os.Stat(req.AudioPath); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}

	cmd, cleanup, err := a.command(req)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	out, err := process.Run(ctx, cmd)
	if err != nil {
		if tail := out.StderrTail(3); tail != "" {
			return nil, fmt.Errorf("%w: %s", err, tail)
		}
		return nil, err
	}

	var parsed helperOutput
	if err := json.Unmarshal(out.Stdout, &parsed); err != nil {
		return nil, fmt.Errorf("parse helper output: %w", err)
	}
	return parsed.toResult(), nil
}

// command builds the invocation; cleanup removes the extracted helper.
func (a *Adapter) command(req transcription.Request) (process.Command, func(), error) {
	model := a.cfg.ModelSize
	if req.ModelSize != "" {
		model = req.ModelSize
	}
	lang := a.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}

	flags := []string{"--audio", req.AudioPath, "--model", string(model), "--device", a.cfg.Device}
	if lang != "" {
		flags = append(flags, "--language", lang)
	}
	if a.cfg.ComputeType != "" {
		flags = append(flags, "--compute-type", a.cfg.ComputeType)
	}
	if req.WordTimestamps {
		flags = append(flags, "--word-timestamps")
	}

	if a.cfg.Script != "" {
		return process.Command{Binary: a.cfg.Script, Args: flags, GracePeriod: a.cfg.GracePeriod}, func() {}, nil
	}

	f, err := os.CreateTemp("", "shadowkit-whisper-*.py")
	if err != nil {
		return process.Command{}, nil, fmt.Errorf("write helper script: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(helperScript); err != nil {
		f.Close()
		cleanup()
		return process.Command{}, nil, fmt.Errorf("write helper script: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return process.Command{}, nil, fmt.Errorf("write helper script: %w", err)
	}
	return process.Command{
		Binary:      a.cfg.Python,
		Args:        append([]string{f.Name()}, flags...),
		GracePeriod: a.cfg.GracePeriod,
	}, cleanup, nil
}

type helperOutput struct {
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Duration            float64 `json:"duration"`
	Text                string  `json:"text"`
	Segments            []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (h *helperOutput) toResult() *transcription.Result {
	spans := make([]transcription.Span, len(h.Segments))
	for i, s := range h.Segments {
		spans[i] = transcription.Span{Start: s.Start, End: s.End, Text: s.Text}
	}
	return &transcription.Result{
		Language:           h.Language,
		LanguageConfidence: h.LanguageProbability,
		Text:               h.Text,
		Duration:           h.Duration,
		Spans:              spans,
	}
}
