package transcription

import (
	"fmt"
	"math"
	"strings"
)

// DefaultLanguageConfidence is reported when a backend detects a language
// but gives no probability for it.
const DefaultLanguageConfidence = 0.9

// ModelSize selects the Whisper model; larger is slower and more accurate.
type ModelSize string

const (
	ModelTiny   ModelSize = "tiny"
	ModelBase   ModelSize = "base"
	ModelSmall  ModelSize = "small"
	ModelMedium ModelSize = "medium"
	ModelLarge  ModelSize = "large"

	DefaultModelSize = ModelSmall
)

// ModelSizes lists the supported sizes from fastest to most accurate.
var ModelSizes = []ModelSize{ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge}

// ParseModelSize accepts a size name case-insensitively. An empty string
// yields DefaultModelSize.
func ParseModelSize(s string) (ModelSize, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultModelSize, nil
	}
	for _, m := range ModelSizes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown model size %q (want one of tiny, base, small, medium, large)", s)
}

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// ModelSize selects the model; empty means the backend default.
	ModelSize ModelSize `json:"model_size,omitempty"`
	// Language forces a language code (e.g. "en"); empty means detect.
	Language string `json:"language,omitempty"`
	// WordTimestamps asks the backend for word-level alignment, which
	// tightens segment boundaries.
	WordTimestamps bool `json:"word_timestamps"`
}

// Result is what a backend returns for one file.
type Result struct {
	// Language is the detected or forced language code.
	Language string `json:"language"`
	// LanguageConfidence is the backend's probability for Language, 0 if unknown.
	LanguageConfidence float64 `json:"language_confidence"`
	// Text is the full transcript.
	Text string `json:"text"`
	// Duration is the audio length in seconds, if reported.
	Duration float64 `json:"duration,omitempty"`
	// Spans are the timed pieces of the transcript in backend order.
	Spans []Span `json:"spans"`
}

// Confidence returns LanguageConfidence, or DefaultLanguageConfidence when
// the backend reported none.
func (r *Result) Confidence() float64 {
	c := r.LanguageConfidence
	if c <= 0 || c > 1 || math.IsNaN(c) {
		return DefaultLanguageConfidence
	}
	return c
}

// Span is one timed piece of transcript.
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Valid reports whether the span has finite, non-negative, increasing bounds.
func (s Span) Valid() bool {
	if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return false
	}
	return s.Start >= 0 && s.End > s.Start
}
