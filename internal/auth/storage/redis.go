package storage

import (
	"context"

	"traffic-share-client/internal/platform/redis"
)

// Redis keeps values under the configured key prefix. Values never expire;
// the token's own lifetime is checked at bootstrap.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.client.Key(key)).Result()
	if redis.IsNil(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.client.Key(key), value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.client.Key(k)
	}
	return r.client.Del(ctx, prefixed...).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
