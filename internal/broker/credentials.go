package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BrokerSync/internal/domain/repository"
	"BrokerSync/internal/service/cache"
)

// secretKeyPrefix namespaces platform credential bundles in the secret store.
const secretKeyPrefix = "platform_"

// SecretKey returns the secret store key for a platform.
func SecretKey(platformID string) string { return secretKeyPrefix + platformID }

// Credentials is a parsed platform credential bundle.
type Credentials map[string]string

// Get returns the named credential field, or "" when absent.
func (c Credentials) Get(key string) string { return c[key] }

// String keeps credential payloads out of %v/%s formatting and logs.
func (c Credentials) String() string { return "credentials(redacted)" }

// GoString keeps credential payloads out of %#v formatting.
func (c Credentials) GoString() string { return c.String() }

// ParseCredentials decodes a stored secret bundle.
func ParseCredentials(raw string) (Credentials, error) {
	var c Credentials
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// deliberately drops the json error: it can echo parts of the payload
		return nil, ErrMalformedCredentials
	}
	if len(c) == 0 {
		return nil, ErrMissingCredentials
	}
	return c, nil
}

// CredentialResolver reads and parses platform credential bundles from the
// secret store. Resolved bundles are cached briefly so that a multi-account
// sync against one platform does not hammer the store.
type CredentialResolver struct {
	store    repository.SecretStore
	cache    *cache.TTLCache
	cacheTTL time.Duration
}

// NewCredentialResolver creates a resolver over the given secret store.
func NewCredentialResolver(store repository.SecretStore, cacheTTL time.Duration) *CredentialResolver {
	return &CredentialResolver{
		store:    store,
		cache:    cache.NewTTLCache(),
		cacheTTL: cacheTTL,
	}
}

// Resolve returns the credentials for a platform.
// Fails with ErrMissingCredentials when no secret is stored,
// ErrSecretStoreUnavailable when the store cannot be reached, and
// ErrMalformedCredentials when the stored bundle does not parse.
func (r *CredentialResolver) Resolve(ctx context.Context, platformID string) (Credentials, error) {
	key := SecretKey(platformID)

	if v, ok := r.cache.Get(key); ok {
		if creds, ok2 := v.(Credentials); ok2 {
			return creds, nil
		}
	}

	raw, found, err := r.store.GetSecret(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSecretStoreUnavailable, err)
	}
	if !found || raw == "" {
		return nil, fmt.Errorf("%w: platform %s", ErrMissingCredentials, platformID)
	}

	creds, err := ParseCredentials(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: platform %s", err, platformID)
	}

	if r.cacheTTL > 0 {
		r.cache.Set(key, creds, r.cacheTTL)
	}
	return creds, nil
}
