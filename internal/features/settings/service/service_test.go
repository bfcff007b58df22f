package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/models"
)

type fakeAPI struct {
	updates []models.SettingsUpdate
	message string
}

func (f *fakeAPI) UpdateSettings(ctx context.Context, req models.SettingsUpdate) (*models.GenericResponse, error) {
	f.updates = append(f.updates, req)
	return &models.GenericResponse{Status: "ok", Message: f.message}, nil
}

func TestUpdateDefaultMessage(t *testing.T) {
	api := &fakeAPI{}
	lang := "uz"
	st, err := NewService(api).Update(context.Background(), models.SettingsUpdate{Language: &lang})
	require.NoError(t, err)

	assert.Equal(t, DefaultSuccessMessage, st.Data.Message)
	require.Len(t, api.updates, 1)
	assert.Equal(t, "uz", *api.updates[0].Language)
	assert.Nil(t, api.updates[0].Theme)
}

func TestUpdateServerMessage(t *testing.T) {
	api := &fakeAPI{message: "Saved"}
	on := true
	st, err := NewService(api).Update(context.Background(), models.SettingsUpdate{PushNotifications: &on})
	require.NoError(t, err)
	assert.Equal(t, "Saved", st.Data.Message)
}

func TestUpdateEmpty(t *testing.T) {
	api := &fakeAPI{}
	_, err := NewService(api).Update(context.Background(), models.SettingsUpdate{})
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, api.updates)
}
