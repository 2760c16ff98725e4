package repository

import (
	"context"

	pkgredis "BrokerSync/pkg/redis"
)

// RedisSecretStore keeps platform credential bundles in Redis under the
// client's key prefix plus a secrets namespace. Values are opaque here; they
// are parsed (and validated) by the credential resolver. Nothing in this type
// logs values.
type RedisSecretStore struct {
	client *pkgredis.Client
}

func NewRedisSecretStore(client *pkgredis.Client) *RedisSecretStore {
	return &RedisSecretStore{client: client}
}

func (s *RedisSecretStore) GetSecret(ctx context.Context, key string) (string, bool, error) {
	return s.client.Get(ctx, "secrets:"+key)
}

func (s *RedisSecretStore) SetSecret(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, "secrets:"+key, value)
}
