package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenVerifier resolves a bearer token to a telegram id
type TokenVerifier func(token string) (int64, error)

// RequireBearer rejects requests without a valid Authorization header
func RequireBearer(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			Abort(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		telegramID, err := verify(strings.TrimSpace(token))
		if err != nil {
			Abort(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		c.Set(TelegramIDKey, telegramID)
		c.Set(TokenKey, token)
		c.Next()
	}
}

func GetTelegramID(c *gin.Context) int64 {
	if v, exists := c.Get(TelegramIDKey); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
