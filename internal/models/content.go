package models

import (
	"encoding/json"
	"fmt"
)

// Analytics periods, also the path segment of /stats/{period}/{telegram_id}
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// ParsePeriod validates an analytics period name
func ParsePeriod(s string) (string, error) {
	switch s {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return s, nil
	case "":
		return PeriodDaily, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

type AnalyticsPoint struct {
	Date       string  `json:"date"`
	SentMB     float64 `json:"sent_mb"`
	SoldMB     float64 `json:"sold_mb"`
	ProfitUSD  float64 `json:"profit_usd"`
	PricePerMB float64 `json:"price_per_mb"`
}

// AnalyticsSeries is a read-only time series. Older backends send "items".
type AnalyticsSeries struct {
	Period string           `json:"period"`
	Points []AnalyticsPoint `json:"points"`
}

func (s *AnalyticsSeries) UnmarshalJSON(data []byte) error {
	var raw struct {
		Period string           `json:"period"`
		Points []AnalyticsPoint `json:"points"`
		Items  []AnalyticsPoint `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Period = raw.Period
	s.Points = raw.Points
	if len(s.Points) == 0 {
		s.Points = raw.Items
	}
	return nil
}

// Totals sums the series
func (s *AnalyticsSeries) Totals() AnalyticsPoint {
	var t AnalyticsPoint
	for _, p := range s.Points {
		t.SentMB += p.SentMB
		t.SoldMB += p.SoldMB
		t.ProfitUSD += p.ProfitUSD
	}
	return t
}

type Announcement struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	Link        string `json:"link,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type PromoCode struct {
	ID           int64   `json:"id,omitempty"`
	Code         string  `json:"code"`
	BonusPercent float64 `json:"bonus_percent"`
	ExpiresAt    string  `json:"expires_at,omitempty"`
	IsActive     bool    `json:"is_active"`
	Description  string  `json:"description,omitempty"`
}

// NewsPromo is returned by GET /news_promo
type NewsPromo struct {
	TelegramLinks map[string]string `json:"telegram_links"`
	Announcements []Announcement    `json:"announcements"`
	Promo         []PromoCode       `json:"promo"`
}

type PromoActivateRequest struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
}

// SettingsUpdate carries only the fields being changed
type SettingsUpdate struct {
	Language          *string `json:"language,omitempty"`
	PushNotifications *bool   `json:"push_notifications,omitempty"`
	SessionUpdates    *bool   `json:"session_updates,omitempty"`
	SystemUpdates     *bool   `json:"system_updates,omitempty"`
	TwoFactorEnabled  *bool   `json:"two_factor_enabled,omitempty"`
	SingleDeviceMode  *bool   `json:"single_device_mode,omitempty"`
	BatterySaver      *bool   `json:"battery_saver,omitempty"`
	Theme             *string `json:"theme,omitempty"`
}

// Empty reports whether no field is set
func (s SettingsUpdate) Empty() bool {
	return s.Language == nil && s.PushNotifications == nil && s.SessionUpdates == nil &&
		s.SystemUpdates == nil && s.TwoFactorEnabled == nil && s.SingleDeviceMode == nil &&
		s.BatterySaver == nil && s.Theme == nil
}

type SupportRequest struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	AdminReply string `json:"admin_reply,omitempty"`
	ReplyAt    string `json:"reply_at,omitempty"`
}

type SupportCreate struct {
	TelegramID    int64  `json:"telegram_id"`
	Subject       string `json:"subject"`
	Message       string `json:"message"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

type SupportHistory struct {
	Items []SupportRequest `json:"items"`
}

// LiveEvent is one message pushed over the live updates websocket
type LiveEvent struct {
	Type      string          `json:"type"`
	Message   string          `json:"message,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}
