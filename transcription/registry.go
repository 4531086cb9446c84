package transcription

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages named adapter factories and cached instances.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Adapter
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Adapter),
	}
}

// RegisterFactory registers a named factory.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates an adapter with the named factory, wraps it with mw,
// and caches the result under name.
func (r *Registry) Create(name string, cfg map[string]any, mw ...Middleware) (Adapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("transcription adapter %q not registered (have %v)", name, r.List())
	}
	a, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create adapter %q: %w", name, err)
	}
	if len(mw) > 0 {
		a = Chain(mw...)(a)
	}
	r.mu.Lock()
	r.instances[name] = a
	r.mu.Unlock()
	return a, nil
}

// Get returns a cached adapter by name.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.instances[name]
	return a, ok
}

// List returns sorted names of all registered factories.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
