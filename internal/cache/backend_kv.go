package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// kvStore keeps entries in Redis under the derived key with native expiry.
type kvStore struct {
	client *redis.Client
}

func newKVStore(client *redis.Client) *kvStore {
	return &kvStore{client: client}
}

func (s *kvStore) Put(ctx context.Context, key string, env envelope, ttl time.Duration) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry to kv: %w", err)
	}
	return nil
}

func (s *kvStore) Get(ctx context.Context, key string) (*envelope, bool, error) {
	data, err := s.client.Get(ctx, cacheKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry from kv: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &env, true, nil
}

func (s *kvStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, cacheKey(key)).Err()
}

func cacheKey(key string) string {
	return "cache:" + key
}
