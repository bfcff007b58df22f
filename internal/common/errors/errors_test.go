package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		msg    string
		code   ErrorCode
		want   string
	}{
		{http.StatusUnauthorized, "token expired", ErrCodeUnauthorized, "token expired"},
		{http.StatusBadRequest, "Minimum withdraw is $1.39", ErrCodeValidation, "Minimum withdraw is $1.39"},
		{http.StatusUnprocessableEntity, "", ErrCodeValidation, "Unprocessable Entity"},
		{http.StatusNotFound, "Session not found", ErrCodeNotFound, "Session not found"},
		{http.StatusTooManyRequests, "", ErrCodeTooManyRequests, "Too Many Requests"},
		{http.StatusBadGateway, "", ErrCodeExternalAPI, "Bad Gateway"},
		{599, "", ErrCodeExternalAPI, FallbackMessage},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d", tc.status), func(t *testing.T) {
			err := FromStatus(tc.status, tc.msg)
			assert.Equal(t, tc.code, err.Code)
			assert.Equal(t, tc.want, err.Message)
			assert.Equal(t, tc.status, err.Status)
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "not logged in", UserMessage(NewNotAuthenticatedError()))
	assert.Equal(t, "boom", UserMessage(stderrors.New("boom")))

	wrapped := fmt.Errorf("load dashboard: %w", FromStatus(http.StatusBadRequest, "bad wallet"))
	assert.Equal(t, "bad wallet", UserMessage(wrapped))
}

func TestIsUnauthorizedUnwraps(t *testing.T) {
	err := fmt.Errorf("call: %w", FromStatus(http.StatusUnauthorized, ""))
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsUnauthorized(stderrors.New("plain")))
	assert.False(t, IsUnauthorized(FromStatus(http.StatusNotFound, "")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := NewNetworkError("GET /dashboard/1", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, err.IsNetwork())
	assert.Equal(t, "GET /dashboard/1", err.Details["operation"])
	assert.Contains(t, err.Error(), "NETWORK_ERROR")
}
