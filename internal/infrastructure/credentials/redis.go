package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aquadic/souq4u/domain"
)

// RedisStore keeps the token under a per-device key with the cookie TTL,
// for storefront clients that share a Redis (kiosks, server-side renderers).
type RedisStore struct {
	client *redis.Client
	key    string
	policy Policy
}

var _ domain.CredentialStore = (*RedisStore)(nil)

// NewRedisStore creates a store keyed by deviceID
func NewRedisStore(client *redis.Client, deviceID string, policy Policy) *RedisStore {
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("credential:%s:%s", policy.Name, deviceID),
		policy: policy,
	}
}

// Get implements domain.CredentialStore
func (s *RedisStore) Get(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrCredentialNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credential from Redis: %w", err)
	}
	return token, nil
}

// Set implements domain.CredentialStore
func (s *RedisStore) Set(ctx context.Context, token string) error {
	return s.client.Set(ctx, s.key, token, s.policy.TTL).Err()
}

// Remove implements domain.CredentialStore
func (s *RedisStore) Remove(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
