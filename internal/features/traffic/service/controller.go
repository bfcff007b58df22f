package service

import (
	"context"
	"sync"
	"time"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/models"
)

// Session is the traffic screen state. Active sessions always carry an id
// unless the server did not return one.
type Session struct {
	Active    bool             `json:"active"`
	IsLoading bool             `json:"is_loading"`
	SessionID models.SessionID `json:"session_id,omitempty"`
	Message   string           `json:"message,omitempty"`
	Error     string           `json:"error,omitempty"`
	StartedAt time.Time        `json:"started_at,omitempty"`
}

// Controller drives the Idle -> Active -> Idle session lifecycle
type Controller struct {
	api      SessionAPI
	deviceID string
	now      func() time.Time

	mu    sync.Mutex
	state Session
}

func NewController(api SessionAPI, deviceID string) *Controller {
	return &Controller{api: api, deviceID: deviceID, now: time.Now}
}

func (c *Controller) State() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Restore marks a session already running on the server as active, e.g. the
// one the dashboard reports.
func (c *Controller) Restore(sessionID models.SessionID) {
	if sessionID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Active {
		return
	}
	c.state = Session{Active: true, SessionID: sessionID, StartedAt: c.now()}
}

// Start opens a session. It is a no-op while a session is active or a start
// is already in flight.
func (c *Controller) Start(ctx context.Context, req models.SessionStartRequest) (Session, error) {
	c.mu.Lock()
	if c.state.Active || c.state.IsLoading {
		st := c.state
		c.mu.Unlock()
		return st, nil
	}
	c.state.IsLoading = true
	c.state.Error = ""
	c.mu.Unlock()

	if req.DeviceID == "" {
		req.DeviceID = c.deviceID
	}

	resp, err := c.api.StartSession(ctx, req)
	if err == nil && !resp.OK() {
		err = errors.New(errors.ErrCodeExternalAPI, fallback(resp.Message, "session was not started"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = false
	if err != nil {
		c.state.Error = errors.UserMessage(err)
		logger.Error().Err(err).Str("device_id", req.DeviceID).Msg("Failed to start session")
		return c.state, err
	}

	c.state = Session{
		Active:    true,
		SessionID: resp.SessionID,
		Message:   resp.Message,
		StartedAt: c.now(),
	}
	logger.Info().
		Str("session_id", resp.SessionID.String()).
		Str("device_id", req.DeviceID).
		Msg("Session started")
	return c.state, nil
}

// Stop closes the active session. Without a session id nothing is sent. A
// failed stop leaves the session active.
func (c *Controller) Stop(ctx context.Context) (Session, error) {
	c.mu.Lock()
	if c.state.SessionID == "" || c.state.IsLoading {
		st := c.state
		c.mu.Unlock()
		return st, nil
	}
	id := c.state.SessionID
	c.state.IsLoading = true
	c.state.Error = ""
	c.mu.Unlock()

	resp, err := c.api.StopSession(ctx, id)
	if err == nil && !resp.OK() {
		err = errors.New(errors.ErrCodeExternalAPI, fallback(resp.Message, "session was not stopped"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = false
	if err != nil {
		c.state.Error = errors.UserMessage(err)
		logger.Error().Err(err).Str("session_id", id.String()).Msg("Failed to stop session")
		return c.state, err
	}

	c.state = Session{Message: resp.Message}
	logger.Info().Str("session_id", id.String()).Msg("Session stopped")
	return c.state, nil
}

func fallback(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
