package device

import (
	"context"
	"errors"
	"os"
	"runtime"

	"github.com/google/uuid"

	"traffic-share-client/internal/auth/storage"
	apperrors "traffic-share-client/internal/common/errors"
)

const IDKey = "traffic_device_id"

// ID returns the persisted device id, generating one on first use
func ID(ctx context.Context, kv storage.KeyValueStore) (string, error) {
	id, err := kv.Get(ctx, IDKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", apperrors.NewStorageError("read device id", err)
	}

	id = uuid.NewString()
	if err := kv.Set(ctx, IDKey, id); err != nil {
		return "", apperrors.NewStorageError("save device id", err)
	}
	return id, nil
}

// OS describes the host for session start requests
func OS() string {
	host, _ := os.Hostname()
	if host == "" {
		return runtime.GOOS
	}
	return runtime.GOOS + "/" + host
}
