package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "gallery"

// RedisCredentialStore implements auth.CredentialStore on a Redis string key.
type RedisCredentialStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	owned  bool
}

// RedisOption customizes a RedisCredentialStore.
type RedisOption func(*RedisCredentialStore)

// WithRedisTTL expires the stored credential after ttl. Zero keeps it
// until Clear.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisCredentialStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// CredentialKey builds the key holding the credential of origin.
func CredentialKey(prefix, origin string) string {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return prefix + ":credential:" + origin
}

// NewRedisCredentialStore creates a store on an existing client. The caller
// owns client.
func NewRedisCredentialStore(client redis.UniversalClient, prefix, origin string, opts ...RedisOption) *RedisCredentialStore {
	s := &RedisCredentialStore{
		client: client,
		key:    CredentialKey(prefix, origin),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Key returns the Redis key used by the store.
func (s *RedisCredentialStore) Key() string {
	return s.key
}

// Save implements auth.CredentialStore.
func (s *RedisCredentialStore) Save(ctx context.Context, credential string) error {
	return s.client.Set(ctx, s.key, credential, s.ttl).Err()
}

// Load implements auth.CredentialStore.
func (s *RedisCredentialStore) Load(ctx context.Context) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Clear implements auth.CredentialStore.
func (s *RedisCredentialStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Ping verifies Redis connectivity.
func (s *RedisCredentialStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis client not configured")
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the client when the store created it.
func (s *RedisCredentialStore) Close() error {
	if s == nil || s.client == nil || !s.owned {
		return nil
	}
	return s.client.Close()
}
