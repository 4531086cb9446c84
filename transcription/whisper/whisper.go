// Package whisper implements transcription.Adapter against a faster-whisper
// HTTP sidecar.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/transcription"
)

const (
	// AdapterName is the registered name for the sidecar adapter.
	AdapterName = "whisper"

	defaultURL     = "http://localhost:8387"
	defaultTimeout = 10 * time.Minute
)

// Config holds configuration for the sidecar adapter.
type Config struct {
	URL         string                  `json:"url" yaml:"url" mapstructure:"url"`
	ModelSize   transcription.ModelSize `json:"model_size" yaml:"model_size" mapstructure:"model_size"`
	Language    string                  `json:"language,omitempty" yaml:"language" mapstructure:"language"`
	Device      string                  `json:"device,omitempty" yaml:"device" mapstructure:"device"`
	ComputeType string                  `json:"compute_type,omitempty" yaml:"compute_type" mapstructure:"compute_type"`
	Timeout     time.Duration           `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Adapter talks to the sidecar over multipart HTTP.
type Adapter struct {
	cfg    Config
	client *http.Client
}

// New creates a sidecar adapter.
func New(cfg Config) *Adapter {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.ModelSize == "" {
		cfg.ModelSize = transcription.DefaultModelSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Factory builds adapters from a config map (keys as in Config's mapstructure tags).
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

// IsAvailable checks if the sidecar answers its health endpoint.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Transcribe uploads the file and converts the sidecar's answer.
func (a *Adapter) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	res, err := a.transcribe(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Cancelled("transcribe").WithCause(ctx.Err())
		}
		appErr := errors.AdapterFailed(AdapterName, err)
		var se *statusError
		if stderrors.As(err, &se) && se.status < http.StatusInternalServerError {
			appErr.Retryable = false
		}
		return nil, appErr
	}
	return res, nil
}

// statusError is a non-200 answer from the sidecar.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("whisper error (status %d): %s", e.status, e.body)
}

func (a *Adapter) transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	body, contentType, err := a.form(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL+"/transcribe", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}

	var out sidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}
	return out.toResult(), nil
}

func (a *Adapter) form(req transcription.Request) (io.Reader, string, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	model := a.cfg.ModelSize
	if req.ModelSize != "" {
		model = req.ModelSize
	}
	lang := a.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}
	fields := map[string]string{
		"model":           string(model),
		"word_timestamps": strconv.FormatBool(req.WordTimestamps),
		"language":        lang,
		"device":          a.cfg.Device,
		"compute_type":    a.cfg.ComputeType,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// --- sidecar response ---

type sidecarResponse struct {
	Text                string           `json:"text"`
	Language            string           `json:"language"`
	LanguageProbability float64          `json:"language_probability"`
	Duration            float64          `json:"duration"`
	Segments            []sidecarSegment `json:"segments"`
}

type sidecarSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (r *sidecarResponse) toResult() *transcription.Result {
	spans := make([]transcription.Span, len(r.Segments))
	for i, s := range r.Segments {
		spans[i] = transcription.Span{Start: s.Start, End: s.End, Text: s.Text}
	}
	duration := r.Duration
	if duration == 0 && len(spans) > 0 {
		duration = spans[len(spans)-1].End
	}
	return &transcription.Result{
		Language:           r.Language,
		LanguageConfidence: r.LanguageProbability,
		Text:               r.Text,
		Duration:           duration,
		Spans:              spans,
	}
}
