package segment

import (
	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
)

type options struct {
	log      *logger.Logger
	metrics  *observability.Metrics
	audio    audio.Config
	listener SessionListener
}

// Option configures a Pipeline or a Session.
type Option func(*options)

// WithLogger sets the logger; the component name is added automatically.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records run, segment and audio metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithAudioConfig sets the chunking and timeouts of a Session's sink and
// source. Pipelines ignore it.
func WithAudioConfig(cfg audio.Config) Option {
	return func(o *options) { o.audio = cfg }
}

// WithListener receives a Session's playback and recording events.
// Pipelines ignore it.
func WithListener(l SessionListener) Option {
	return func(o *options) { o.listener = l }
}

func buildOptions(component string, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get(component)
	} else {
		o.log = o.log.WithComponent(component)
	}
	return o
}
