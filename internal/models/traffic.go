package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SessionID identifies a traffic session. The backend emits it either as a
// JSON number or a string; it is kept as a string client-side.
type SessionID string

func (id *SessionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SessionID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("session_id: %w", err)
	}
	*id = SessionID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the backend's integer field accepts them
func (id SessionID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id SessionID) String() string {
	return string(id)
}

// Network types reported by the device
const (
	NetworkWiFi    = "wifi"
	NetworkMobile  = "mobile"
	NetworkUnknown = "unknown"
)

// SessionStartRequest is the body of POST /traffic/start
type SessionStartRequest struct {
	DeviceID      string `json:"device_id"`
	ClientLocalIP string `json:"client_local_ip,omitempty"`
	NetworkType   string `json:"network_type,omitempty"`
	AppVersion    string `json:"app_version,omitempty"`
	OS            string `json:"os,omitempty"`
	BatteryLevel  *int   `json:"battery_level,omitempty"`
}

type SessionStopRequest struct {
	SessionID SessionID `json:"session_id"`
}

// TelemetryReport is one periodic POST /traffic/report sample
type TelemetryReport struct {
	SessionID      SessionID         `json:"session_id"`
	DeviceID       string            `json:"device_id"`
	SequenceNumber int               `json:"sequence_number"`
	DeltaMB        float64           `json:"delta_mb"`
	CumulativeMB   float64           `json:"cumulative_mb"`
	Speed          float64           `json:"speed"`
	BatteryLevel   *int              `json:"battery_level,omitempty"`
	NetworkType    string            `json:"network_type,omitempty"`
	Timestamp      string            `json:"timestamp"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// GenericResponse is the {status, message} envelope most mutations return
type GenericResponse struct {
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	SessionID     SessionID `json:"session_id,omitempty"`
	Bypass        bool      `json:"bypass,omitempty"`
	TransactionID int64     `json:"transaction_id,omitempty"`
}

// OK reports a successful status. Backends use "ok" and "success" interchangeably.
func (r *GenericResponse) OK() bool {
	switch r.Status {
	case "ok", "success", "":
		return true
	}
	return false
}

// SessionItem is one row of the session history
type SessionItem struct {
	ID        SessionID `json:"id"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	SentMB    float64   `json:"sent_mb"`
	EarnedUSD float64   `json:"earned_usd"`
	Status    string    `json:"status"`
	IPAddress string    `json:"ip_address,omitempty"`
	Location  string    `json:"location,omitempty"`
	Device    string    `json:"device,omitempty"`
}

type SessionList struct {
	Items []SessionItem `json:"items"`
	Total int           `json:"total"`
}

type SessionSummary struct {
	TodaySessions     int     `json:"today_sessions"`
	TodayMB           float64 `json:"today_mb"`
	TodayEarnings     float64 `json:"today_earnings"`
	WeekSessions      int     `json:"week_sessions"`
	WeekMB            float64 `json:"week_mb"`
	WeekEarnings      float64 `json:"week_earnings"`
	AveragePerSession float64 `json:"average_per_session,omitempty"`
}

// Page selects a window of a list endpoint
type Page struct {
	Limit  int
	Offset int
}
