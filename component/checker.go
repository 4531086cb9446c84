package component

import (
	"context"

	"github.com/kbukum/shadowkit/observability"
)

// checked lifts a HealthChecker into a Component with no lifecycle of its
// own.
type checked struct {
	name    string
	kind    string
	checker observability.HealthChecker
}

var (
	_ Component   = (*checked)(nil)
	_ Describable = (*checked)(nil)
)

// FromChecker wraps a dependency the service only health-checks, such as the
// ffmpeg binary or the transcription backend. Start and Stop do nothing.
func FromChecker(name, kind string, c observability.HealthChecker) Component {
	return &checked{name: name, kind: kind, checker: c}
}

func (c *checked) Name() string                 { return c.name }
func (c *checked) Start(context.Context) error { return nil }
func (c *checked) Stop(context.Context) error  { return nil }

// Health runs the wrapped checker under the registration name.
func (c *checked) Health(ctx context.Context) observability.Health {
	h := c.checker.CheckHealth(ctx)
	if h.Name == "" {
		h.Name = c.name
	}
	return h
}

func (c *checked) Describe() Description {
	return Description{Type: c.kind, Details: "health check only"}
}
