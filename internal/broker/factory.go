package broker

import (
	"context"
	"fmt"

	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
)

// Factory resolves the broker provider for an account: platform id from the
// account, credentials from the resolver, implementation from the registry.
// Safe for concurrent use; the only side effect is the credential read.
type Factory struct {
	registry  *Registry
	resolver  *CredentialResolver
	platforms map[string]models.Platform
}

// NewFactory creates a provider factory. platforms carries the statically
// configured platform declarations (id, name, url).
func NewFactory(registry *Registry, resolver *CredentialResolver, platforms []models.Platform) *Factory {
	m := make(map[string]models.Platform, len(platforms))
	for _, p := range platforms {
		m[p.ID] = p
	}
	return &Factory{registry: registry, resolver: resolver, platforms: m}
}

// ForAccount returns a ready-to-fetch provider for the account's platform.
func (f *Factory) ForAccount(ctx context.Context, account *models.Account) (repository.BrokerProvider, error) {
	if !account.Linked() {
		return nil, fmt.Errorf("%w: account %s", ErrNoLinkedPlatform, account.ID)
	}

	creds, err := f.resolver.Resolve(ctx, account.PlatformID)
	if err != nil {
		return nil, err
	}

	builder, ok := f.registry.Lookup(account.PlatformID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, account.PlatformID)
	}

	platform, ok := f.platforms[account.PlatformID]
	if !ok {
		platform = models.Platform{ID: account.PlatformID}
	}
	return builder(platform, creds)
}
