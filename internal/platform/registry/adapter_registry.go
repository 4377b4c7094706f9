// Package registry manages registration and construction of tool adapters.
// It implements the registry + factory pattern so adapter packages register
// themselves from init() and the engine never imports a specific tool.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"reconx/internal/core/ports"
	"reconx/internal/platform/logx"
)

// AdapterRegistry maps adapter names to factories and metadata.
type AdapterRegistry struct {
	mu        sync.RWMutex
	factories map[string]ports.AdapterFactory
	metadata  map[string]ports.AdapterMetadata
	logger    logx.Logger
}

var globalRegistry *AdapterRegistry
var once sync.Once

// Global returns the process-wide registry instance.
func Global() *AdapterRegistry {
	once.Do(func() {
		globalRegistry = NewAdapterRegistry(logx.New())
	})
	return globalRegistry
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry(logger logx.Logger) *AdapterRegistry {
	return &AdapterRegistry{
		factories: make(map[string]ports.AdapterFactory),
		metadata:  make(map[string]ports.AdapterMetadata),
		logger:    logger.With("component", "adapter-registry"),
	}
}

// Register adds an adapter factory with its metadata. Typically called from
// each adapter's init().
func (r *AdapterRegistry) Register(name string, factory ports.AdapterFactory, meta ports.AdapterMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("adapter name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil for adapter %s", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("adapter %s is already registered", name)
	}

	r.factories[name] = factory
	r.metadata[name] = meta
	return nil
}

// Build constructs the named adapters, applying per-tool configuration
// overrides. Unknown names fail the build: the pipeline topology must only
// reference registered adapters.
func (r *AdapterRegistry) Build(names []string, cfgs map[string]ports.AdapterConfig) ([]ports.ToolAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapters := make([]ports.ToolAdapter, 0, len(names))
	for _, name := range names {
		factory, exists := r.factories[name]
		if !exists {
			return nil, fmt.Errorf("adapter %s not registered", name)
		}

		cfg, ok := cfgs[name]
		if !ok {
			cfg = ports.DefaultAdapterConfig()
		}

		adapter, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build adapter %s: %w", name, err)
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

// List returns the names of all registered adapters, sorted.
func (r *AdapterRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetMetadata returns the metadata of a registered adapter.
func (r *AdapterRegistry) GetMetadata(name string) (ports.AdapterMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.metadata[name]
	return meta, exists
}

// IsRegistered reports whether an adapter is registered.
func (r *AdapterRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Clear removes all registrations. Useful in tests.
func (r *AdapterRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]ports.AdapterFactory)
	r.metadata = make(map[string]ports.AdapterMetadata)
}
