package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-share-client/internal/common/config"
	"traffic-share-client/internal/platform/redis"
)

func exerciseStore(t *testing.T, s KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "traffic_token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "traffic_token", "abc"))
	require.NoError(t, s.Set(ctx, "traffic_user", `{"telegram_id":1}`))

	v, err := s.Get(ctx, "traffic_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Set(ctx, "traffic_token", "def"))
	v, err = s.Get(ctx, "traffic_token")
	require.NoError(t, err)
	assert.Equal(t, "def", v)

	require.NoError(t, s.Delete(ctx, "traffic_token", "traffic_user", "missing"))
	_, err = s.Get(ctx, "traffic_token")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "traffic_user")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	s, err := NewFile(path)
	require.NoError(t, err)

	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a second handle sees the persisted value
	other, err := NewFile(path)
	require.NoError(t, err)
	v, err := other.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestFileStoreCorrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o600))

	s, err := NewFile(path)
	require.NoError(t, err)

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, "k"))

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"k": "v"`)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Credentials.Store = config.StoreMemory
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	cfg.Credentials.Store = config.StoreSQLite
	cfg.Credentials.SQLitePath = filepath.Join(t.TempDir(), "c.db")
	s, err = Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	cfg.Credentials.Store = "etcd"
	_, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRedisKeyPrefix(t *testing.T) {
	assert.Equal(t, "trafficctl:traffic_token", redis.PrefixedKey("trafficctl:", "traffic_token"))
	assert.Equal(t, "traffic_user", redis.PrefixedKey("", "traffic_user"))
}
