// Package stream selects the alert transport by kind.
package stream

import (
	"context"
	"fmt"
	"sort"

	"FinkBridge/internal/config"
	"FinkBridge/internal/ports"
)

// Factory opens consumers of one transport kind.
type Factory interface {
	Kind() string
	Open(ctx context.Context, cfg config.StreamConfig) (ports.AlertConsumer, error)
}

// Registry keeps a mapping from transport kinds to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a factory.
func (r *Registry) Register(factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[factory.Kind()] = factory
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Open resolves cfg.Kind and opens a consumer.
func (r *Registry) Open(ctx context.Context, cfg config.StreamConfig) (ports.AlertConsumer, error) {
	factory, ok := r.factories[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("stream kind %q is not registered (have %v)", cfg.Kind, r.Kinds())
	}

	consumer, err := factory.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s stream: %w", cfg.Kind, err)
	}
	return consumer, nil
}
