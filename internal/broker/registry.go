package broker

import (
	"sync"

	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
)

// ProviderBuilder constructs a provider instance for one platform using its
// static configuration and resolved credentials.
type ProviderBuilder func(platform models.Platform, creds Credentials) (repository.BrokerProvider, error)

// Registry maps platform ids to provider builders. It is the extension point
// for new broker integrations; registration happens at wiring time.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]ProviderBuilder
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]ProviderBuilder)}
}

// Register binds a builder to a platform id, replacing any previous binding.
func (r *Registry) Register(platformID string, b ProviderBuilder) {
	r.mu.Lock()
	r.builders[platformID] = b
	r.mu.Unlock()
}

// Lookup returns the builder for a platform id.
func (r *Registry) Lookup(platformID string) (ProviderBuilder, bool) {
	r.mu.RLock()
	b, ok := r.builders[platformID]
	r.mu.RUnlock()
	return b, ok
}

// Platforms returns the registered platform ids.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.builders))
	for id := range r.builders {
		ids = append(ids, id)
	}
	return ids
}
