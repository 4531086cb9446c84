package sse

import (
	"context"
	"strconv"
	"sync"

	"github.com/kbukum/shadowkit/component"
	"github.com/kbukum/shadowkit/observability"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component runs a Hub's event loop under the component registry.
type Component struct {
	hub     *Hub
	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

// NewComponent wraps hub. The hub may be handed to publishers before the
// registry starts it.
func NewComponent(hub *Hub) *Component {
	return &Component{hub: hub, stopped: make(chan struct{})}
}

// Hub returns the wrapped hub.
func (c *Component) Hub() *Hub { return c.hub }

// Name returns the registration name.
func (c *Component) Name() string { return "sse" }

// Start launches the event loop.
func (c *Component) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true
	go func() {
		defer close(c.stopped)
		c.hub.Run()
	}()
	return nil
}

// Stop closes every client stream and waits for the loop to exit.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	c.hub.Stop()
	if !running {
		return nil
	}
	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health is up while the loop runs.
func (c *Component) Health(context.Context) observability.Health {
	select {
	case <-c.hub.done:
		return observability.Health{Name: c.Name(), Status: observability.HealthStatusDown, Message: "hub stopped"}
	default:
	}
	return observability.Health{
		Name:    c.Name(),
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"clients": strconv.Itoa(c.hub.ClientCount())},
	}
}

// Describe reports the hub for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{Name: "SSE Hub", Type: "sse", Details: "run event streams"}
}
