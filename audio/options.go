package audio

import (
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
)

type options struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Sink or Source.
type Option func(*options)

// WithConfig sets chunking and timeout settings. Zero fields take defaults.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger; the component name is added automatically.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records session and device metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(component string, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg.ApplyDefaults()
	if o.log == nil {
		o.log = logger.Get(component)
	} else {
		o.log = o.log.WithComponent(component)
	}
	return o
}
