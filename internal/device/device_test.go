package device

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-share-client/internal/auth/storage"
)

func TestIDIsStable(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	first, err := ID(ctx, kv)
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second, err := ID(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIDSurvivesLogoutKeys(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	id, err := ID(ctx, kv)
	require.NoError(t, err)

	require.NoError(t, kv.Delete(ctx, "traffic_token", "traffic_user"))

	again, err := ID(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestOS(t *testing.T) {
	assert.NotEmpty(t, OS())
}
