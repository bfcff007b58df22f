package devserver

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"traffic-share-client/internal/models"
)

const (
	pricePerGB   = 1.5
	usdtRate     = 1.0
	uzsRate      = 12600.0
	timestampFmt = "2006-01-02T15:04:05Z"
)

var errInsufficientBalance = fmt.Errorf("Insufficient balance")

type sessionRecord struct {
	models.SessionItem
	telegramID int64
	deviceID   string
	started    time.Time
	active     bool
}

type account struct {
	profile      models.UserProfile
	settings     models.SettingsUpdate
	transactions []models.Transaction
	withdraws    []models.WithdrawItem
	support      []models.SupportRequest
	usedPromos   map[string]bool
}

// state is the in-memory backend the dev server serves from
type state struct {
	mu             sync.Mutex
	now            func() time.Time
	startBalance   float64
	accounts       map[int64]*account
	sessions       map[int64]*sessionRecord
	nextSessionID  int64
	nextTxID       int64
	nextWithdrawID int64
	nextSupportID  int64
	promos         map[string]models.PromoCode
	announcements  []models.Announcement
}

func newState(startBalance float64) *state {
	return &state{
		now:          time.Now,
		startBalance: startBalance,
		accounts:     make(map[int64]*account),
		sessions:     make(map[int64]*sessionRecord),
		promos: map[string]models.PromoCode{
			"BONUS10": {ID: 1, Code: "BONUS10", BonusPercent: 10, IsActive: true, Description: "+10% on next payout"},
			"EXPIRED": {ID: 2, Code: "EXPIRED", BonusPercent: 5, IsActive: false},
		},
		announcements: []models.Announcement{
			{ID: 1, Title: "Welcome", Description: "Share unused traffic and earn USDT", CreatedAt: "2024-01-01T00:00:00Z"},
		},
	}
}

func (s *state) stamp() string {
	return s.now().UTC().Format(timestampFmt)
}

// upsertUser creates the account on first login and refreshes the profile
func (s *state) upsertUser(req models.TelegramAuthRequest) models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[req.ID]
	if !ok {
		acc = &account{
			profile: models.UserProfile{
				ID:         req.ID,
				TelegramID: req.ID,
				BalanceUSD: s.startBalance,
				Role:       "user",
			},
			usedPromos: make(map[string]bool),
		}
		s.accounts[req.ID] = acc
	}
	acc.profile.Username = req.Username
	acc.profile.FirstName = req.FirstName
	acc.profile.PhotoURL = req.PhotoURL
	acc.profile.AuthDate = time.Unix(req.AuthDate, 0).UTC().Format(timestampFmt)
	return acc.profile
}

func (s *state) account(telegramID int64) (*account, bool) {
	acc, ok := s.accounts[telegramID]
	return acc, ok
}

func (s *state) profile(telegramID int64) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.account(telegramID)
	if !ok {
		return models.UserProfile{}, false
	}
	return acc.profile, true
}

func (s *state) activeSession(telegramID int64) *sessionRecord {
	for _, rec := range s.sessions {
		if rec.telegramID == telegramID && rec.active {
			return rec
		}
	}
	return nil
}

func (s *state) dashboard(telegramID int64) (models.Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.account(telegramID)
	if !ok {
		return models.Dashboard{}, false
	}
	p := acc.profile
	d := models.Dashboard{
		User: p,
		Balance: models.DashboardBalance{
			USD:           p.BalanceUSD,
			ConvertedUSDT: round2(p.BalanceUSD * usdtRate),
			ConvertedUZS:  math.Round(p.BalanceUSD * uzsRate),
			LastRefreshed: s.stamp(),
		},
		Traffic: models.DashboardTraffic{
			SentMB: p.SentMB,
			UsedMB: p.UsedMB,
			Status: "idle",
		},
		Pricing: models.DashboardPricing{
			Date:       s.now().UTC().Format("2006-01-02"),
			PricePerGB: pricePerGB,
		},
		MiniStats: models.DashboardMiniStat{
			TodayEarn: s.earnedSince(acc, s.now().Add(-24*time.Hour)),
			WeekEarn:  s.earnedSince(acc, s.now().Add(-7*24*time.Hour)),
			MonthEarn: s.earnedSince(acc, s.now().Add(-30*24*time.Hour)),
		},
		LastUpdated: s.stamp(),
	}
	if rec := s.activeSession(telegramID); rec != nil {
		d.Traffic.SessionID = rec.ID
		d.Traffic.Status = "active"
	}
	return d, true
}

func (s *state) earnedSince(acc *account, since time.Time) float64 {
	var total float64
	for _, tx := range acc.transactions {
		if tx.Type != models.TxTypeEarning {
			continue
		}
		at, err := time.Parse(timestampFmt, tx.CreatedAt)
		if err == nil && !at.Before(since.UTC().Truncate(time.Second)) {
			total += tx.AmountUSD
		}
	}
	return round2(total)
}

func (s *state) startSession(telegramID int64, req models.SessionStartRequest) (*sessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.account(telegramID); !ok {
		return nil, fmt.Errorf("User not found")
	}
	if rec := s.activeSession(telegramID); rec != nil {
		return nil, fmt.Errorf("Session %s is already active", rec.ID)
	}

	s.nextSessionID++
	now := s.now()
	rec := &sessionRecord{
		SessionItem: models.SessionItem{
			ID:        models.SessionID(fmt.Sprint(s.nextSessionID)),
			StartTime: now.UTC().Format(timestampFmt),
			Status:    "active",
			Device:    req.OS,
		},
		telegramID: telegramID,
		deviceID:   req.DeviceID,
		started:    now,
		active:     true,
	}
	s.sessions[s.nextSessionID] = rec
	return rec, nil
}

func (s *state) findSession(telegramID int64, id models.SessionID) *sessionRecord {
	for key, rec := range s.sessions {
		if fmt.Sprint(key) == id.String() && rec.telegramID == telegramID {
			return rec
		}
	}
	return nil
}

func (s *state) stopSession(telegramID int64, id models.SessionID) (*sessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.findSession(telegramID, id)
	if rec == nil {
		return nil, fmt.Errorf("Session not found")
	}
	now := s.now()
	rec.active = false
	rec.Status = "completed"
	rec.EndTime = now.UTC().Format(timestampFmt)
	rec.Duration = now.Sub(rec.started).Round(time.Second).String()
	return rec, nil
}

// report credits delta_mb to the session and the account balance
func (s *state) report(telegramID int64, req models.TelemetryReport) (*sessionRecord, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.findSession(telegramID, req.SessionID)
	if rec == nil {
		return nil, 0, fmt.Errorf("Session not found")
	}
	if !rec.active {
		return nil, 0, fmt.Errorf("Session is not active")
	}
	if req.DeltaMB < 0 {
		return nil, 0, fmt.Errorf("delta_mb must be positive")
	}

	acc, _ := s.account(telegramID)
	earned := round6(req.DeltaMB / 1024 * pricePerGB)
	rec.SentMB += req.DeltaMB
	rec.EarnedUSD += earned
	acc.profile.SentMB += req.DeltaMB
	acc.profile.UsedMB += req.DeltaMB
	acc.profile.BalanceUSD = round6(acc.profile.BalanceUSD + earned)

	if earned > 0 {
		s.nextTxID++
		acc.transactions = append(acc.transactions, models.Transaction{
			ID:         s.nextTxID,
			TelegramID: telegramID,
			Type:       models.TxTypeEarning,
			AmountUSD:  earned,
			Status:     models.TxStatusCompleted,
			Note:       "session " + rec.ID.String(),
			CreatedAt:  s.stamp(),
		})
	}
	return rec, acc.profile.BalanceUSD, nil
}

func (s *state) balance(telegramID int64) (models.BalanceOverview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.account(telegramID)
	if !ok {
		return models.BalanceOverview{}, false
	}
	p := acc.profile
	var pending float64
	for _, w := range acc.withdraws {
		if w.Status == models.TxStatusPending {
			pending += w.AmountUSD
		}
	}
	return models.BalanceOverview{
		User:       &p,
		BalanceUSD: p.BalanceUSD,
		SentMB:     p.SentMB,
		UsedMB:     p.UsedMB,
		PendingUSD: round2(pending),
		TodayEarn:  s.earnedSince(acc, s.now().Add(-24*time.Hour)),
		MonthEarn:  s.earnedSince(acc, s.now().Add(-30*24*time.Hour)),
	}, true
}

// transactions returns newest first
func (s *state) transactions(telegramID int64, page models.Page) models.TransactionList {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.account(telegramID)
	if !ok {
		return models.TransactionList{Items: []models.Transaction{}}
	}
	items := make([]models.Transaction, len(acc.transactions))
	for i, tx := range acc.transactions {
		items[len(items)-1-i] = tx
	}
	return models.TransactionList{Items: paginate(items, page), Total: len(items)}
}

func (s *state) withdraw(telegramID int64, req models.WithdrawRequest) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.account(telegramID)
	if !ok {
		return models.Transaction{}, fmt.Errorf("User not found")
	}
	if req.IdempotencyKey != "" {
		for _, tx := range acc.transactions {
			if tx.Type == models.TxTypeWithdraw && tx.Note == req.IdempotencyKey {
				return tx, nil
			}
		}
	}
	balance := decimal.NewFromFloat(acc.profile.BalanceUSD)
	amount := decimal.NewFromFloat(req.AmountUSD)
	if balance.LessThan(amount) {
		return models.Transaction{}, errInsufficientBalance
	}

	acc.profile.BalanceUSD = balance.Sub(amount).InexactFloat64()
	s.nextTxID++
	s.nextWithdrawID++
	tx := models.Transaction{
		ID:            s.nextTxID,
		TelegramID:    telegramID,
		Type:          models.TxTypeWithdraw,
		AmountUSD:     req.AmountUSD,
		AmountUSDT:    round2(req.AmountUSD * usdtRate),
		Currency:      "USDT",
		Status:        models.TxStatusPending,
		WalletAddress: req.WalletAddress,
		Note:          req.IdempotencyKey,
		CreatedAt:     s.stamp(),
	}
	acc.transactions = append(acc.transactions, tx)
	acc.withdraws = append(acc.withdraws, models.WithdrawItem{
		ID:        s.nextWithdrawID,
		AmountUSD: req.AmountUSD,
		Status:    models.TxStatusPending,
		CreatedAt: tx.CreatedAt,
	})
	return tx, nil
}

func (s *state) withdraws(telegramID int64) models.WithdrawList {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.account(telegramID)
	if !ok {
		return models.WithdrawList{Items: []models.WithdrawItem{}}
	}
	items := append([]models.WithdrawItem(nil), acc.withdraws...)
	return models.WithdrawList{Items: items, Total: len(items)}
}

// analytics buckets the user's sessions per day over the period
func (s *state) analytics(telegramID int64, period string) models.AnalyticsSeries {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := map[string]int{models.PeriodDaily: 1, models.PeriodWeekly: 7, models.PeriodMonthly: 30}[period]
	today := s.now().UTC().Truncate(24 * time.Hour)

	points := make([]models.AnalyticsPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i-days+1).Format("2006-01-02")
		points[i] = models.AnalyticsPoint{Date: date, PricePerMB: round6(pricePerGB / 1024)}
		index[date] = i
	}
	for _, rec := range s.sessions {
		if rec.telegramID != telegramID {
			continue
		}
		i, ok := index[rec.started.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		points[i].SentMB += rec.SentMB
		points[i].SoldMB += rec.SentMB
		points[i].ProfitUSD = round6(points[i].ProfitUSD + rec.EarnedUSD)
	}
	return models.AnalyticsSeries{Period: period, Points: points}
}

func (s *state) newsPromo() models.NewsPromo {
	s.mu.Lock()
	defer s.mu.Unlock()

	promo := make([]models.PromoCode, 0, len(s.promos))
	for _, p := range s.promos {
		if p.IsActive {
			promo = append(promo, p)
		}
	}
	sort.Slice(promo, func(i, j int) bool { return promo[i].ID < promo[j].ID })
	return models.NewsPromo{
		TelegramLinks: map[string]string{"channel": "https://t.me/traffic_share", "support": "https://t.me/traffic_share_support"},
		Announcements: append([]models.Announcement(nil), s.announcements...),
		Promo:         promo,
	}
}

// activatePromo returns (found, error)
func (s *state) activatePromo(telegramID int64, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.promos[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return false, fmt.Errorf("Promo code not found")
	}
	if !p.IsActive {
		return true, fmt.Errorf("Promo code expired")
	}
	acc, ok := s.account(telegramID)
	if !ok {
		return false, fmt.Errorf("User not found")
	}
	if acc.usedPromos[p.Code] {
		return true, fmt.Errorf("Promo code already used")
	}
	acc.usedPromos[p.Code] = true
	return true, nil
}

func (s *state) updateSettings(telegramID int64, u models.SettingsUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.account(telegramID)
	if !ok {
		return false
	}
	merge := func(dst **bool, src *bool) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	if u.Language != nil {
		v := *u.Language
		acc.settings.Language = &v
	}
	if u.Theme != nil {
		v := *u.Theme
		acc.settings.Theme = &v
	}
	merge(&acc.settings.PushNotifications, u.PushNotifications)
	merge(&acc.settings.SessionUpdates, u.SessionUpdates)
	merge(&acc.settings.SystemUpdates, u.SystemUpdates)
	merge(&acc.settings.TwoFactorEnabled, u.TwoFactorEnabled)
	merge(&acc.settings.SingleDeviceMode, u.SingleDeviceMode)
	merge(&acc.settings.BatterySaver, u.BatterySaver)
	if u.PushNotifications != nil {
		v := *u.PushNotifications
		acc.profile.NotificationsEnabled = &v
	}
	return true
}

func (s *state) sendSupport(telegramID int64, req models.SupportCreate) (models.SupportRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.account(telegramID)
	if !ok {
		return models.SupportRequest{}, false
	}
	s.nextSupportID++
	item := models.SupportRequest{
		ID:         s.nextSupportID,
		TelegramID: telegramID,
		Subject:    req.Subject,
		Message:    req.Message,
		Status:     "open",
		CreatedAt:  s.stamp(),
	}
	acc.support = append(acc.support, item)
	return item, true
}

func (s *state) supportHistory(telegramID int64) models.SupportHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.account(telegramID)
	if !ok {
		return models.SupportHistory{Items: []models.SupportRequest{}}
	}
	return models.SupportHistory{Items: append([]models.SupportRequest{}, acc.support...)}
}

// sessionList returns newest first
func (s *state) sessionList(telegramID int64, page models.Page) models.SessionList {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.userSessions(telegramID)
	items := make([]models.SessionItem, len(recs))
	for i, rec := range recs {
		items[i] = rec.SessionItem
	}
	return models.SessionList{Items: paginate(items, page), Total: len(items)}
}

func (s *state) userSessions(telegramID int64) []*sessionRecord {
	var recs []*sessionRecord
	for _, rec := range s.sessions {
		if rec.telegramID == telegramID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].started.After(recs[j].started) })
	return recs
}

func (s *state) sessionSummary(telegramID int64) models.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var sum models.SessionSummary
	var total float64
	recs := s.userSessions(telegramID)
	for _, rec := range recs {
		total += rec.EarnedUSD
		if now.Sub(rec.started) <= 24*time.Hour {
			sum.TodaySessions++
			sum.TodayMB += rec.SentMB
			sum.TodayEarnings += rec.EarnedUSD
		}
		if now.Sub(rec.started) <= 7*24*time.Hour {
			sum.WeekSessions++
			sum.WeekMB += rec.SentMB
			sum.WeekEarnings += rec.EarnedUSD
		}
	}
	if len(recs) > 0 {
		sum.AveragePerSession = round6(total / float64(len(recs)))
	}
	return sum
}

func paginate[T any](items []T, page models.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return items[page.Offset:end]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
