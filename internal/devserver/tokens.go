package devserver

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer signs HS256 access tokens and tracks revocations
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	revoked  map[string]bool
	versions map[int64]int
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		revoked:  make(map[string]bool),
		versions: make(map[int64]int),
	}
}

func (i *Issuer) Issue(telegramID int64) (string, error) {
	i.mu.RLock()
	version := i.versions[telegramID]
	i.mu.RUnlock()

	now := i.now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(telegramID, 10),
		"jti": uuid.NewString(),
		"ver": version,
		"iat": now.Unix(),
		"exp": now.Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and revocation and returns the telegram id
func (i *Issuer) Verify(tokenString string) (int64, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return 0, err
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	telegramID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject: %w", err)
	}

	jti, _ := claims["jti"].(string)
	version, _ := claims["ver"].(float64)

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.revoked[jti] {
		return 0, fmt.Errorf("token revoked")
	}
	if int(version) != i.versions[telegramID] {
		return 0, fmt.Errorf("token superseded")
	}
	return telegramID, nil
}

// Revoke invalidates one token
func (i *Issuer) Revoke(tokenString string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return
	}
	if jti, ok := claims["jti"].(string); ok {
		i.mu.Lock()
		i.revoked[jti] = true
		i.mu.Unlock()
	}
}

// RevokeAll invalidates every token issued to telegramID so far
func (i *Issuer) RevokeAll(telegramID int64) {
	i.mu.Lock()
	i.versions[telegramID]++
	i.mu.Unlock()
}
