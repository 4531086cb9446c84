package component

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
)

// DefaultStopTimeout bounds each component's Stop when the caller's context
// has no earlier deadline.
const DefaultStopTimeout = 10 * time.Second

type entry struct {
	component Component
	started   bool
}

// Registry starts components in registration order and stops them in
// reverse. Register dependencies first.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	lookup  map[string]*entry
	log     *logger.Logger
}

// NewRegistry creates an empty registry. A nil logger uses the "component"
// logger from the registry of named loggers.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Get("component")
	} else {
		log = log.WithComponent("component")
	}
	return &Registry{lookup: make(map[string]*entry), log: log}
}

// Register adds c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{component: c}
	r.entries = append(r.entries, e)
	r.lookup[name] = e
	r.log.Debug("component registered", logger.Fields("component", name))
	return nil
}

// StartAll starts every component in registration order and stops at the
// first failure. Components started before the failure stay started; call
// StopAll to release them.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("starting components", logger.Fields("count", len(r.entries)))
	for _, e := range r.entries {
		if e.started {
			continue
		}
		name := e.component.Name()
		if err := e.component.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields("component", name, logger.FieldError, err.Error()))
			return fmt.Errorf("start %s: %w", name, err)
		}
		e.started = true
		r.log.Debug("component started", logger.Fields("component", name))
	}
	return nil
}

// StopAll stops every started component in reverse registration order.
// Every component gets its Stop call even when an earlier one fails; the
// failures come back joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.component.Name()
		stopCtx, cancel := context.WithTimeout(ctx, DefaultStopTimeout)
		err := e.component.Stop(stopCtx)
		cancel()
		e.started = false
		if err != nil {
			r.log.Error("component stop failed", logger.Fields("component", name, logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			continue
		}
		r.log.Info("component stopped", logger.Fields("component", name))
	}
	return stderrors.Join(errs...)
}

// HealthAll reports every registered component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []observability.Health {
	r.mu.RLock()
	entries := make([]*entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	out := make([]observability.Health, 0, len(entries))
	for _, e := range entries {
		h := e.component.Health(ctx)
		if h.Name == "" {
			h.Name = e.component.Name()
		}
		out = append(out, h)
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.lookup[name]; ok {
		return e.component
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.component)
	}
	return out
}
