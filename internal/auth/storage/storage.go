package storage

import (
	"context"
	"errors"
	"fmt"

	"traffic-share-client/internal/common/config"
	"traffic-share-client/internal/platform/redis"
)

var ErrNotFound = errors.New("not found")

// KeyValueStore persists the small set of string values the client keeps
// between runs.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open builds the store selected by CREDENTIAL_STORE
func Open(ctx context.Context, cfg *config.Config) (KeyValueStore, error) {
	switch cfg.Credentials.Store {
	case config.StoreMemory:
		return NewMemory(), nil
	case config.StoreFile:
		return NewFile(cfg.Credentials.FilePath)
	case config.StoreSQLite:
		return NewSQLite(cfg.Credentials.SQLitePath)
	case config.StoreRedis:
		client, err := redis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		return NewRedis(client), nil
	}
	return nil, fmt.Errorf("unknown credential store %q", cfg.Credentials.Store)
}
