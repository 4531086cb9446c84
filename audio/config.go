package audio

import "time"

// Config controls chunking and session hand-off for Sink and Source.
type Config struct {
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gt=0"`
	ChunkSize  int `yaml:"chunk_size" mapstructure:"chunk_size" validate:"min=64,max=65536"`
	// PlaybackStopTimeout bounds how long a new playback waits for the
	// previous one to reach its terminal event.
	PlaybackStopTimeout time.Duration `yaml:"playback_stop_timeout" mapstructure:"playback_stop_timeout" validate:"gte=0"`
	// RecordingStopTimeout is the same bound for recordings.
	RecordingStopTimeout time.Duration `yaml:"recording_stop_timeout" mapstructure:"recording_stop_timeout" validate:"gte=0"`
	// MaxReadFailures consecutive failed reads end a recording.
	MaxReadFailures int `yaml:"max_read_failures" mapstructure:"max_read_failures" validate:"gte=1"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 1024
	}
	if c.PlaybackStopTimeout == 0 {
		c.PlaybackStopTimeout = time.Second
	}
	if c.RecordingStopTimeout == 0 {
		c.RecordingStopTimeout = 2 * time.Second
	}
	if c.MaxReadFailures == 0 {
		c.MaxReadFailures = 3
	}
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}
