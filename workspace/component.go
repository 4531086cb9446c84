package workspace

import (
	"context"
	"strconv"

	"github.com/kbukum/shadowkit/component"
	"github.com/kbukum/shadowkit/observability"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component puts a Workspace under the component registry. Stopping it
// cancels every run and closes every session.
type Component struct {
	ws *Workspace
}

// NewComponent wraps ws.
func NewComponent(ws *Workspace) *Component { return &Component{ws: ws} }

// Name returns the registration name.
func (c *Component) Name() string { return "workspace" }

// Start does nothing; a Workspace accepts runs from New on.
func (c *Component) Start(context.Context) error { return nil }

// Stop closes the workspace.
func (c *Component) Stop(ctx context.Context) error { return c.ws.Close(ctx) }

// Health is up until the workspace is closed.
func (c *Component) Health(context.Context) observability.Health {
	if c.ws.ctx.Err() != nil {
		return observability.Health{Name: c.Name(), Status: observability.HealthStatusDown, Message: "closed"}
	}
	runs := c.ws.Runs()
	active := 0
	for _, r := range runs {
		select {
		case <-r.Done():
		default:
			active++
		}
	}
	return observability.Health{
		Name:   c.Name(),
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"runs":   strconv.Itoa(len(runs)),
			"active": strconv.Itoa(active),
		},
	}
}

// Describe reports the workspace for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Workspace",
		Type:    "audio",
		Details: "chunk=" + strconv.Itoa(c.ws.audioCfg.ChunkSize),
	}
}
