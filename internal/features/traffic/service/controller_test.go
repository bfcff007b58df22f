package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/models"
)

type fakeSessionAPI struct {
	starts  []models.SessionStartRequest
	stops   []models.SessionID
	startFn func() (*models.GenericResponse, error)
	stopFn  func() (*models.GenericResponse, error)
}

func (f *fakeSessionAPI) StartSession(ctx context.Context, req models.SessionStartRequest) (*models.GenericResponse, error) {
	f.starts = append(f.starts, req)
	if f.startFn != nil {
		return f.startFn()
	}
	return &models.GenericResponse{Status: "success", SessionID: "101", Message: "Session started"}, nil
}

func (f *fakeSessionAPI) StopSession(ctx context.Context, id models.SessionID) (*models.GenericResponse, error) {
	f.stops = append(f.stops, id)
	if f.stopFn != nil {
		return f.stopFn()
	}
	return &models.GenericResponse{Status: "success", Message: "Session stopped"}, nil
}

func TestStartFromIdle(t *testing.T) {
	api := &fakeSessionAPI{}
	c := NewController(api, "device-1")

	st, err := c.Start(context.Background(), models.SessionStartRequest{NetworkType: models.NetworkWiFi})
	require.NoError(t, err)

	require.Len(t, api.starts, 1)
	assert.Equal(t, "device-1", api.starts[0].DeviceID)
	assert.True(t, st.Active)
	assert.Equal(t, models.SessionID("101"), st.SessionID)
	assert.Equal(t, "Session started", st.Message)
	assert.False(t, st.StartedAt.IsZero())
}

func TestStartWhileActiveIsNoop(t *testing.T) {
	api := &fakeSessionAPI{}
	c := NewController(api, "device-1")

	first, err := c.Start(context.Background(), models.SessionStartRequest{})
	require.NoError(t, err)
	second, err := c.Start(context.Background(), models.SessionStartRequest{})
	require.NoError(t, err)

	assert.Len(t, api.starts, 1)
	assert.Equal(t, first, second)
}

func TestStartFailureKeepsIdle(t *testing.T) {
	api := &fakeSessionAPI{startFn: func() (*models.GenericResponse, error) {
		return nil, errors.FromStatus(400, "Device already has an active session")
	}}
	c := NewController(api, "device-1")

	st, err := c.Start(context.Background(), models.SessionStartRequest{})
	require.Error(t, err)
	assert.False(t, st.Active)
	assert.False(t, st.IsLoading)
	assert.Equal(t, "Device already has an active session", st.Error)
}

func TestStartErrorStatusBody(t *testing.T) {
	api := &fakeSessionAPI{startFn: func() (*models.GenericResponse, error) {
		return &models.GenericResponse{Status: "error", Message: "Traffic limit reached"}, nil
	}}
	c := NewController(api, "device-1")

	st, err := c.Start(context.Background(), models.SessionStartRequest{})
	require.Error(t, err)
	assert.False(t, st.Active)
	assert.Equal(t, "Traffic limit reached", st.Error)
}

func TestStopWithoutSessionSendsNothing(t *testing.T) {
	api := &fakeSessionAPI{}
	c := NewController(api, "device-1")

	st, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Empty(t, api.stops)
	assert.False(t, st.Active)
}

func TestStopReturnsToIdle(t *testing.T) {
	api := &fakeSessionAPI{}
	c := NewController(api, "device-1")
	_, err := c.Start(context.Background(), models.SessionStartRequest{})
	require.NoError(t, err)

	st, err := c.Stop(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.SessionID{"101"}, api.stops)
	assert.False(t, st.Active)
	assert.Empty(t, st.SessionID)
	assert.Equal(t, "Session stopped", st.Message)
}

func TestStopFailureStaysActive(t *testing.T) {
	api := &fakeSessionAPI{stopFn: func() (*models.GenericResponse, error) {
		return nil, errors.NewNetworkError("POST /traffic/stop", context.DeadlineExceeded)
	}}
	c := NewController(api, "device-1")
	_, err := c.Start(context.Background(), models.SessionStartRequest{})
	require.NoError(t, err)

	st, err := c.Stop(context.Background())
	require.Error(t, err)

	assert.True(t, st.Active)
	assert.Equal(t, models.SessionID("101"), st.SessionID)
	assert.Equal(t, "network error, check your connection", st.Error)
	assert.Len(t, api.stops, 1)
}

func TestRestore(t *testing.T) {
	api := &fakeSessionAPI{}
	c := NewController(api, "device-1")
	c.Restore("55")

	st, err := c.Start(context.Background(), models.SessionStartRequest{})
	require.NoError(t, err)
	assert.Empty(t, api.starts)
	assert.Equal(t, models.SessionID("55"), st.SessionID)

	_, err = c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.SessionID{"55"}, api.stops)
}
