package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"traffic-share-client/internal/auth/storage"
	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/models"
)

// Persisted credential keys
const (
	TokenKey = "traffic_token"
	UserKey  = "traffic_user"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Listener is notified after every state transition
type Listener func(State)

// Store owns the current token and cached profile. It is the single writer of
// the persisted credentials and implements transport.TokenSource.
type Store struct {
	kv  storage.KeyValueStore
	now func() time.Time

	mu    sync.RWMutex
	state State
	token string
	user  *models.UserProfile

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

func NewStore(kv storage.KeyValueStore) *Store {
	return &Store{
		kv:        kv,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Token returns the bearer token, or "" when logged out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the cached profile, or nil when logged out
func (s *Store) User() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// TelegramID returns the id of the logged in user
func (s *Store) TelegramID() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated || s.user == nil {
		return 0, errors.NewNotAuthenticatedError()
	}
	return s.user.TelegramID, nil
}

// Subscribe registers fn and returns a function that removes it
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify(state State) {
	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Login persists the credentials of a successful /auth/telegram response
func (s *Store) Login(ctx context.Context, resp *models.AuthResponse) error {
	if resp == nil {
		return errors.NewValidationError("response", "empty login response")
	}
	creds := resp.Credentials()
	if creds.AccessToken == "" {
		return errors.NewValidationError("token", "login response has no token")
	}
	if resp.User == nil {
		return errors.NewValidationError("user", "login response has no user")
	}

	profile, err := json.Marshal(resp.User)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "encode profile")
	}
	if err := s.kv.Set(ctx, TokenKey, creds.AccessToken); err != nil {
		return errors.NewStorageError("save token", err)
	}
	if err := s.kv.Set(ctx, UserKey, string(profile)); err != nil {
		_ = s.kv.Delete(ctx, TokenKey)
		return errors.NewStorageError("save profile", err)
	}

	user := *resp.User
	s.mu.Lock()
	s.token = creds.AccessToken
	s.user = &user
	s.state = Authenticated
	s.mu.Unlock()

	logger.Info().
		Int64("telegram_id", user.TelegramID).
		Msg("Logged in")
	s.notify(Authenticated)
	return nil
}

// Logout clears persisted and in-memory credentials. The in-memory state is
// cleared even when storage fails.
func (s *Store) Logout(ctx context.Context) error {
	err := s.kv.Delete(ctx, TokenKey, UserKey)
	s.clear()
	if err != nil {
		return errors.NewStorageError("clear credentials", err)
	}
	return nil
}

func (s *Store) clear() {
	s.mu.Lock()
	was := s.state
	s.token = ""
	s.user = nil
	s.state = Unauthenticated
	s.mu.Unlock()

	if was != Unauthenticated {
		s.notify(Unauthenticated)
	}
}

// HandleUnauthorized is the transport's 401 hook
func (s *Store) HandleUnauthorized(ctx context.Context) {
	if !s.IsAuthenticated() {
		return
	}
	logger.Warn().Msg("Session rejected by server, logging out")
	if err := s.Logout(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to clear credentials")
	}
}

// Bootstrap restores a persisted session without a network round trip.
// Expired JWTs and unreadable profiles are discarded.
func (s *Store) Bootstrap(ctx context.Context) error {
	token, err := s.kv.Get(ctx, TokenKey)
	if stderrors.Is(err, storage.ErrNotFound) {
		return s.discard(ctx, "no token")
	}
	if err != nil {
		return errors.NewStorageError("read token", err)
	}

	raw, err := s.kv.Get(ctx, UserKey)
	if stderrors.Is(err, storage.ErrNotFound) {
		return s.discard(ctx, "no profile")
	}
	if err != nil {
		return errors.NewStorageError("read profile", err)
	}

	var user models.UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logger.Warn().Err(err).Msg("Stored profile is corrupt")
		return s.discard(ctx, "corrupt profile")
	}

	if exp, ok := tokenExpiry(token); ok && !exp.After(s.now()) {
		logger.Info().Time("expired_at", exp).Msg("Stored token expired")
		return s.discard(ctx, "token expired")
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.state = Authenticated
	s.mu.Unlock()

	s.notify(Authenticated)
	return nil
}

func (s *Store) discard(ctx context.Context, reason string) error {
	logger.Debug().Str("reason", reason).Msg("No usable session")
	err := s.kv.Delete(ctx, TokenKey, UserKey)
	s.clear()
	if err != nil {
		return errors.NewStorageError("clear credentials", err)
	}
	return nil
}

// UpdateProfile replaces the cached profile after a refresh
func (s *Store) UpdateProfile(ctx context.Context, user *models.UserProfile) error {
	if user == nil {
		return errors.NewValidationError("user", "empty profile")
	}
	if !s.IsAuthenticated() {
		return errors.NewNotAuthenticatedError()
	}

	data, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "encode profile")
	}
	if err := s.kv.Set(ctx, UserKey, string(data)); err != nil {
		return errors.NewStorageError("save profile", err)
	}

	u := *user
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

// UpdateToken stores a renewed access token
func (s *Store) UpdateToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.NewValidationError("token", "empty token")
	}
	if !s.IsAuthenticated() {
		return errors.NewNotAuthenticatedError()
	}
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		return errors.NewStorageError("save token", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// tokenExpiry reads exp from a JWT without verifying it. Opaque tokens report
// ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
