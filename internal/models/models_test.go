package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthResponseTokenShapes(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		var resp AuthResponse
		err := json.Unmarshal([]byte(`{"status":"ok","user":{"telegram_id":7},
			"token":{"access_token":"abc","refresh_token":"r","token_type":"bearer"}}`), &resp)
		require.NoError(t, err)

		tok := resp.Credentials()
		assert.Equal(t, "abc", tok.AccessToken)
		assert.Equal(t, "r", tok.RefreshToken)
		assert.Equal(t, int64(7), resp.User.TelegramID)
	})

	t.Run("string", func(t *testing.T) {
		var resp AuthResponse
		err := json.Unmarshal([]byte(`{"status":"ok","user":{"telegram_id":7},"token":"jwt-value"}`), &resp)
		require.NoError(t, err)
		assert.Equal(t, "jwt-value", resp.Credentials().AccessToken)
		assert.Equal(t, "bearer", resp.Credentials().TokenType)
	})

	t.Run("top level", func(t *testing.T) {
		var resp AuthResponse
		err := json.Unmarshal([]byte(`{"status":"ok","user":{"telegram_id":7},"access_token":"top"}`), &resp)
		require.NoError(t, err)
		assert.Equal(t, "top", resp.Credentials().AccessToken)
	})
}

func TestSessionIDAcceptsNumberAndString(t *testing.T) {
	var a, b GenericResponse
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ok","session_id":42}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ok","session_id":"s-42"}`), &b))

	assert.Equal(t, SessionID("42"), a.SessionID)
	assert.Equal(t, SessionID("s-42"), b.SessionID)
}

func TestSessionIDMarshal(t *testing.T) {
	out, err := json.Marshal(SessionStopRequest{SessionID: "42"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":42}`, string(out))

	out, err = json.Marshal(SessionStopRequest{SessionID: "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"abc"}`, string(out))
}

func TestAnalyticsSeriesItemsFallback(t *testing.T) {
	var s AnalyticsSeries
	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"date":"2024-01-01","sent_mb":10,"profit_usd":0.5},
		{"date":"2024-01-02","sent_mb":5,"profit_usd":0.25}]}`), &s))

	require.Len(t, s.Points, 2)
	assert.Equal(t, 15.0, s.Totals().SentMB)
	assert.Equal(t, 0.75, s.Totals().ProfitUSD)
}

func TestGenericResponseOK(t *testing.T) {
	assert.True(t, (&GenericResponse{Status: "ok"}).OK())
	assert.True(t, (&GenericResponse{Status: "success"}).OK())
	assert.False(t, (&GenericResponse{Status: "error"}).OK())
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodDaily, p)

	_, err = ParsePeriod("yearly")
	assert.Error(t, err)
}

func TestSettingsUpdateEmpty(t *testing.T) {
	assert.True(t, SettingsUpdate{}.Empty())
	theme := "dark"
	assert.False(t, SettingsUpdate{Theme: &theme}.Empty())
}
