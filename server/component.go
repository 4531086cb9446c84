package server

import (
	"context"
	"fmt"

	"github.com/kbukum/shadowkit/component"
	"github.com/kbukum/shadowkit/observability"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component runs a Server under the component registry.
type Component struct {
	server *Server
}

// NewComponent wraps s. Register routes on s before the registry starts it.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the registration name.
func (c *Component) Name() string { return componentName }

// Start binds the listener and serves in the background.
func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

// Stop drains in-flight requests.
func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

// Health is up once the listener is bound.
func (c *Component) Health(context.Context) observability.Health {
	if c.server.listener == nil {
		return observability.Health{Name: componentName, Status: observability.HealthStatusDown, Message: "not listening"}
	}
	return observability.Health{
		Name:    componentName,
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"addr": c.server.Addr()},
	}
}

// Describe reports the address and route count for the startup summary.
func (c *Component) Describe() component.Description {
	cfg := c.server.config
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d routes=%d", cfg.Host, cfg.Port, len(c.server.engine.Routes())),
		Port:    cfg.Port,
	}
}
