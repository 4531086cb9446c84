// Package ffmpeg decodes audio files into SampleBuffers by running ffmpeg.
package ffmpeg

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
	"github.com/kbukum/shadowkit/process"
)

// Config configures the decoder.
type Config struct {
	// Binary is the ffmpeg executable. Defaults to "ffmpeg".
	Binary string `yaml:"binary" mapstructure:"binary"`
	// MaxDuration caps how much audio is decoded. Zero means no cap.
	MaxDuration time.Duration `yaml:"max_duration" mapstructure:"max_duration" validate:"gte=0"`
	// GracePeriod between SIGTERM and SIGKILL when a decode is cancelled.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "ffmpeg"
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 2 * time.Second
	}
}

// Decoder turns any container ffmpeg understands into mono float32 samples.
type Decoder struct {
	cfg Config
	log *logger.Logger
}

// New creates a Decoder.
func New(cfg Config, log *logger.Logger) *Decoder {
	cfg.ApplyDefaults()
	if log == nil {
		return &Decoder{cfg: cfg, log: logger.Get("audio.ffmpeg")}
	}
	return &Decoder{cfg: cfg, log: log.WithComponent("audio.ffmpeg")}
}

// Decode resamples path to mono f32le at rate. Failures are DECODE_FAILED;
// a cancelled ctx yields CANCELLED.
func (d *Decoder) Decode(ctx context.Context, path string, rate int) (*audio.SampleBuffer, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanDecode)
	defer span.End()

	buf, err := d.decode(ctx, path, rate)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	return buf, nil
}

func (d *Decoder) decode(ctx context.Context, path string, rate int) (*audio.SampleBuffer, error) {
	if rate <= 0 {
		return nil, errors.InvalidInput("rate", "sample rate must be positive")
	}
	if info, err := os.Stat(path); err != nil {
		return nil, errors.DecodeFailed(path, err)
	} else if info.IsDir() {
		return nil, errors.DecodeFailed(path, fmt.Errorf("%s is a directory", path))
	}

	maxBytes := 0
	if d.cfg.MaxDuration > 0 {
		maxBytes = int(d.cfg.MaxDuration.Seconds()*float64(rate)) * 4
	}

	res, err := process.Run(ctx, process.Command{
		Binary:      d.cfg.Binary,
		Args:        Args(path, rate),
		GracePeriod: d.cfg.GracePeriod,
		MaxStdout:   maxBytes,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Cancelled("decode").WithCause(ctx.Err())
		}
		if tail := res.StderrTail(3); tail != "" {
			err = fmt.Errorf("%w: %s", err, tail)
		}
		return nil, errors.DecodeFailed(path, err)
	}

	samples := PCMToFloat32(res.Stdout)
	if len(samples) == 0 {
		return nil, errors.DecodeFailed(path, fmt.Errorf("no audio stream decoded"))
	}

	d.log.Debug("decoded", logger.Fields(
		logger.FieldPath, path,
		logger.FieldSamples, len(samples),
		logger.FieldSampleRate, rate,
	), logger.DurationFields("decode", res.Duration))
	buf, err := audio.NewSampleBuffer(samples, rate)
	if err != nil {
		return nil, errors.DecodeFailed(path, err)
	}
	return buf, nil
}

// Args builds the ffmpeg arguments for a mono float32 decode to stdout.
func Args(path string, rate int) []string {
	return []string{
		"-nostdin",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-loglevel", "error",
		"pipe:1",
	}
}

// PCMToFloat32 converts little-endian f32le bytes to samples. A trailing
// partial sample is dropped.
func PCMToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(pcm[i*4:]))
	}
	return samples
}

// CheckHealth reports whether the ffmpeg binary is on PATH.
func (d *Decoder) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{Name: "ffmpeg", Status: observability.HealthStatusUp}
	if p, err := exec.LookPath(d.cfg.Binary); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	} else {
		h.Details = map[string]string{"path": p}
	}
	return h
}
