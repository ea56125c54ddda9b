package adapters

import (
	"context"
	"fmt"
	"sync"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/config"
)

// Factory opens a gateway from its store settings
type Factory func(ctx context.Context, cfg config.StoreConfig) (simfs.Gateway, error)

// Registry maps store types to gateway factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register ties a factory to a store type. The first registration of a type
// wins; later ones are ignored.
func (r *Registry) Register(storeType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[storeType]; ok {
		return
	}
	r.factories[storeType] = f
}

// GetFactory returns the factory registered for storeType
func (r *Registry) GetFactory(storeType string) (Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[storeType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no gateway registered for store type %q", storeType)
	}
	return f, nil
}

// Open picks the factory by cfg.Type and opens the gateway.
// All expected store types should be registered with [Registry.Register]
// (or [RegisterBuiltins]) before calling this function.
func (r *Registry) Open(ctx context.Context, cfg config.StoreConfig) (simfs.Gateway, error) {
	f, err := r.GetFactory(cfg.Type)
	if err != nil {
		return nil, err
	}
	gw, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Type, err)
	}
	return gw, nil
}
