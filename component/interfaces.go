package component

import (
	"context"

	"github.com/kbukum/shadowkit/observability"
)

// Component is a lifecycle-managed part of the service.
type Component interface {
	// Name returns the unique registration name.
	Name() string

	// Start brings the component up. It must not block past readiness.
	Start(ctx context.Context) error

	// Stop shuts the component down and releases its resources.
	Stop(ctx context.Context) error

	// Health reports the current state of the component.
	Health(ctx context.Context) observability.Health
}

// Description is what a component reports about itself in the startup
// summary.
type Description struct {
	// Name is the display name. Empty uses the component's Name.
	Name string
	// Type groups components, e.g. "server", "sse", "audio".
	Type string
	// Details is a one-line configuration summary.
	Details string
	// Port is the primary port, 0 if not applicable.
	Port int
}

// Describable is optionally implemented by components that want a line in
// the startup summary.
type Describable interface {
	Describe() Description
}
