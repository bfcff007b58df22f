package models

// Transaction statuses and types as reported by the backend
const (
	TxTypeEarning  = "earning"
	TxTypeWithdraw = "withdraw"
	TxTypeBonus    = "bonus"

	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Transaction is an immutable ledger record
type Transaction struct {
	ID            int64   `json:"id"`
	TelegramID    int64   `json:"telegram_id,omitempty"`
	Type          string  `json:"type"`
	AmountUSD     float64 `json:"amount_usd"`
	AmountUSDT    float64 `json:"amount_usdt,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Status        string  `json:"status"`
	WalletAddress string  `json:"wallet_address,omitempty"`
	TxHash        string  `json:"tx_hash,omitempty"`
	Note          string  `json:"note,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type TransactionList struct {
	Items []Transaction `json:"items"`
	Total int           `json:"total"`
}

// BalanceOverview is returned by GET /user/balance/{telegram_id}
type BalanceOverview struct {
	User         *UserProfile  `json:"user,omitempty"`
	BalanceUSD   float64       `json:"balance_usd"`
	SentMB       float64       `json:"sent_mb"`
	UsedMB       float64       `json:"used_mb"`
	PendingUSD   float64       `json:"pending_usd,omitempty"`
	TodayEarn    float64       `json:"today_earn"`
	MonthEarn    float64       `json:"month_earn"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

type BalanceRefreshRequest struct {
	TelegramID int64    `json:"telegram_id"`
	Delta      *float64 `json:"delta,omitempty"`
}

// WithdrawRequest is the body of POST /withdraw
type WithdrawRequest struct {
	TelegramID     int64   `json:"telegram_id"`
	AmountUSD      float64 `json:"amount_usd"`
	WalletAddress  string  `json:"wallet_address"`
	Network        string  `json:"network"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

type WithdrawItem struct {
	ID          int64   `json:"id"`
	AmountUSD   float64 `json:"amount_usd"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	ProcessedAt string  `json:"processed_at,omitempty"`
	TxHash      string  `json:"tx_hash,omitempty"`
}

type WithdrawList struct {
	Items []WithdrawItem `json:"items"`
	Total int            `json:"total"`
}
