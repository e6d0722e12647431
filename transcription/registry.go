package transcription

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory creates a provider instance from a generic config map.
type Factory func(cfg map[string]any) (Provider, error)

// Registry manages named transcription providers and their factories.
// Selection among providers is driven by external configuration; the
// orchestrator depends only on the Provider contract.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Provider),
	}
}

// RegisterFactory registers a named factory for creating providers.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates a provider using the named factory and config, and
// caches the instance under its name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("transcription provider factory %q not registered", name)
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	r.Register(p)
	return p, nil
}

// Register caches a provider instance under its own name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[p.Name()] = p
}

// Get returns a registered provider instance by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.instances[name]
	return p, ok
}

// List returns the sorted names of all registered provider instances.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the preferred provider when it is registered and
// available, falling back to the first available provider in name order.
func (r *Registry) Select(ctx context.Context, preferred string) (Provider, error) {
	if preferred != "" {
		if p, ok := r.Get(preferred); ok && p.IsAvailable(ctx) {
			return p, nil
		}
	}
	for _, name := range r.List() {
		if name == preferred {
			continue
		}
		p, _ := r.Get(name)
		if p != nil && p.IsAvailable(ctx) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no available transcription provider (preferred %q)", preferred)
}
