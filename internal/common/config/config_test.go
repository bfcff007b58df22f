package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, StoreFile, cfg.Credentials.Store)
	assert.Equal(t, 1.39, cfg.Withdraw.MinUSD)
	assert.Equal(t, 100.0, cfg.Withdraw.MaxUSD)
	assert.Equal(t, "BEP20", cfg.Withdraw.Network)
	assert.Equal(t, 3*time.Second, cfg.Session.TelemetryInterval)
	assert.Contains(t, cfg.Credentials.FilePath, ".trafficctl")
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/api/")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("CREDENTIAL_STORE", "memory")
	t.Setenv("MIN_WITHDRAW_USD", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, StoreMemory, cfg.Credentials.Store)
	assert.Equal(t, 2.5, cfg.Withdraw.MinUSD)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		t.Setenv("CREDENTIAL_STORE", "keychain")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("limits", func(t *testing.T) {
		t.Setenv("MIN_WITHDRAW_USD", "10")
		t.Setenv("MAX_WITHDRAW_USD", "5")
		_, err := Load()
		assert.Error(t, err)
	})
}
