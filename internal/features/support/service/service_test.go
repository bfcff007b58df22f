package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/models"
)

type fixedIdentity int64

func (f fixedIdentity) TelegramID() (int64, error) { return int64(f), nil }

type fakeAPI struct {
	sent []models.SupportCreate
}

func (f *fakeAPI) SendSupport(ctx context.Context, req models.SupportCreate) (*models.GenericResponse, error) {
	f.sent = append(f.sent, req)
	return &models.GenericResponse{Status: "ok"}, nil
}

func (f *fakeAPI) GetSupportHistory(ctx context.Context) (*models.SupportHistory, error) {
	return &models.SupportHistory{Items: []models.SupportRequest{{ID: 1, Subject: "Payout", Status: "open"}}}, nil
}

func TestSend(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, fixedIdentity(8))

	st, err := svc.Send(context.Background(), " Payout ", "Where is my withdraw?")
	require.NoError(t, err)

	assert.Equal(t, "Request sent", st.Data.Message)
	assert.Equal(t, []models.SupportCreate{{TelegramID: 8, Subject: "Payout", Message: "Where is my withdraw?"}}, api.sent)
}

func TestSendValidation(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, fixedIdentity(8))

	st, err := svc.Send(context.Background(), "", "body")
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "subject cannot be empty", st.Error)

	_, err = svc.Send(context.Background(), "subject", "   ")
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, api.sent)
}

func TestHistory(t *testing.T) {
	svc := NewService(&fakeAPI{}, fixedIdentity(8))
	st, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, st.Data.Items, 1)
	assert.Equal(t, st, svc.HistoryState())
}
