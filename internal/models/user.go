package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UserProfile is the user as the backend returns it on login and refresh
type UserProfile struct {
	ID                   int64   `json:"id,omitempty"`
	TelegramID           int64   `json:"telegram_id"`
	Username             string  `json:"username,omitempty"`
	FirstName            string  `json:"first_name,omitempty"`
	PhotoURL             string  `json:"photo_url,omitempty"`
	AuthDate             string  `json:"auth_date,omitempty"`
	BalanceUSD           float64 `json:"balance_usd"`
	SentMB               float64 `json:"sent_mb"`
	UsedMB               float64 `json:"used_mb"`
	Role                 string  `json:"role,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
}

// DisplayName returns the name shown in greetings
func (u *UserProfile) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return fmt.Sprintf("id%d", u.TelegramID)
	}
}

// TelegramAuthRequest is the signed payload produced by the Telegram login widget
type TelegramAuthRequest struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// AuthToken holds the credentials issued on login
type AuthToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// UnmarshalJSON accepts both a bare access token string and the object form.
// Both shapes are served by deployed backend versions.
func (t *AuthToken) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = AuthToken{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = AuthToken{AccessToken: s, TokenType: "bearer"}
		return nil
	}

	type plain AuthToken
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = AuthToken(p)
	return nil
}

// AuthResponse is returned by POST /auth/telegram
type AuthResponse struct {
	Status string       `json:"status"`
	User   *UserProfile `json:"user"`
	Token  AuthToken    `json:"token"`
	// Some deployments return the token at top level
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Credentials returns the token regardless of which response shape was used
func (r *AuthResponse) Credentials() AuthToken {
	tok := r.Token
	if tok.AccessToken == "" {
		tok.AccessToken = r.AccessToken
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = r.RefreshToken
	}
	if tok.TokenType == "" && tok.AccessToken != "" {
		tok.TokenType = "bearer"
	}
	return tok
}

// TokenRenewResponse is returned by POST /user/token/renew
type TokenRenewResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
