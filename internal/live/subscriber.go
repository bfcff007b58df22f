package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/models"
	"traffic-share-client/internal/platform/transport"
)

const (
	DefaultPingInterval = 25 * time.Second
	writeWait           = 10 * time.Second

	pingFrame = "ping"
	pongFrame = "pong"
)

// Handler receives every decoded event
type Handler func(models.LiveEvent)

type Options struct {
	BaseURL        string
	PingInterval   time.Duration
	OnUnauthorized transport.UnauthorizedHandler
	Dialer         *websocket.Dialer
}

// Subscriber streams live session and balance updates from /ws/{token}
type Subscriber struct {
	baseURL        string
	tokens         transport.TokenSource
	pingInterval   time.Duration
	onUnauthorized transport.UnauthorizedHandler
	dialer         *websocket.Dialer
}

func NewSubscriber(opts Options, tokens transport.TokenSource) *Subscriber {
	interval := opts.PingInterval
	if interval <= 0 {
		interval = DefaultPingInterval
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Subscriber{
		baseURL:        opts.BaseURL,
		tokens:         tokens,
		pingInterval:   interval,
		onUnauthorized: opts.OnUnauthorized,
		dialer:         dialer,
	}
}

// URL maps an http(s) API base to the ws(s) endpoint for token
func URL(baseURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = u.Path + "/ws/" + url.PathEscape(token)
	return u.String(), nil
}

// Run connects and delivers events to handle until ctx is done or the server
// closes the connection. A normal close returns nil.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	token := s.tokens.Token()
	if token == "" {
		return errors.NewNotAuthenticatedError()
	}
	target, err := URL(s.baseURL, token)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "build live url")
	}

	conn, resp, err := s.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return s.unauthorized(ctx)
		}
		return errors.NewNetworkError("dial live updates", err)
	}
	defer conn.Close()

	logger.Info().Msg("Live updates connected")

	var writeMu sync.Mutex
	write := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(messageType, data)
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := write(websocket.TextMessage, []byte(pingFrame)); err != nil {
					logger.Debug().Err(err).Msg("Live ping failed")
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				return s.unauthorized(ctx)
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info().Msg("Live updates closed by server")
				return nil
			}
			return errors.NewNetworkError("read live updates", err)
		}

		text := strings.TrimSpace(string(data))
		if text == pongFrame || text == "" {
			continue
		}

		var event models.LiveEvent
		if err := json.Unmarshal(data, &event); err != nil {
			logger.Warn().Err(err).Str("frame", text).Msg("Skipping malformed live event")
			continue
		}
		handle(event)
	}
}

func (s *Subscriber) unauthorized(ctx context.Context) error {
	logger.Warn().Msg("Live updates rejected the token")
	if s.onUnauthorized != nil {
		s.onUnauthorized(ctx)
	}
	return errors.FromStatus(http.StatusUnauthorized, "session expired, please login again")
}
