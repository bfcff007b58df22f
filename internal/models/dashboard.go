package models

// Dashboard is the read-only snapshot returned by GET /dashboard/{telegram_id}
type Dashboard struct {
	User        UserProfile       `json:"user"`
	Balance     DashboardBalance  `json:"balance"`
	Traffic     DashboardTraffic  `json:"traffic"`
	Pricing     DashboardPricing  `json:"pricing"`
	MiniStats   DashboardMiniStat `json:"mini_stats"`
	LastUpdated string            `json:"last_updated,omitempty"`
}

type DashboardBalance struct {
	USD           float64 `json:"usd"`
	ConvertedUSDT float64 `json:"converted_usdt"`
	ConvertedUZS  float64 `json:"converted_uzs"`
	LastRefreshed string  `json:"last_refreshed,omitempty"`
}

type DashboardTraffic struct {
	SentMB       float64   `json:"sent_mb"`
	UsedMB       float64   `json:"used_mb"`
	RemainingMB  float64   `json:"remaining_mb"`
	CurrentSpeed float64   `json:"current_speed,omitempty"`
	SessionID    SessionID `json:"session_id,omitempty"`
	Status       string    `json:"status,omitempty"`
}

// DashboardPricing is today's published price
type DashboardPricing struct {
	Date       string  `json:"date,omitempty"`
	PricePerGB float64 `json:"price_per_gb"`
	Message    string  `json:"message,omitempty"`
	Change     float64 `json:"change,omitempty"`
}

// DashboardMiniStat is the condensed today/week/month earnings summary
type DashboardMiniStat struct {
	TodayEarn              float64 `json:"today_earn"`
	WeekEarn               float64 `json:"week_earn"`
	MonthEarn              float64 `json:"month_earn"`
	AverageSpeed           float64 `json:"average_speed,omitempty"`
	ActiveSessionsEstimate float64 `json:"active_sessions_estimate,omitempty"`
}
