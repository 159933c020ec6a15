package connector

import (
	"fmt"
	"sort"
)

// Factory builds a Connector from its config and shared dependencies.
// Construction fails when a required credential is missing, so a
// misconfigured source is rejected before any network call.
type Factory func(cfg SourceConfig, deps Deps) (Connector, error)

// Registry maps source names to connector factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name, replacing any existing entry.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Build constructs the connector registered under name.
func (r *Registry) Build(name string, cfg SourceConfig, deps Deps) (Connector, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	return factory(cfg, deps)
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a Registry with every built-in connector.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(SourceSerper, NewSerper)
	r.Register(SourceGooglePlaces, NewGooglePlaces)
	r.Register(SourceGeoFeed, NewGeoFeed)
	r.Register(SourceNCR, NewNCR)
	r.Register(SourceOpenChargeMap, NewOpenChargeMap)
	return r
}
