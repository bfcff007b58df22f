package service

import (
	"context"
	"sync"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

const transactionsPageSize = 50

// Balance is the balance screen: the overview plus recent transactions. A
// failed transactions fetch does not hide the balance.
type Balance struct {
	Overview          models.BalanceOverview `json:"overview"`
	Transactions      []models.Transaction   `json:"transactions"`
	TransactionsError string                 `json:"transactions_error,omitempty"`
}

type Service struct {
	api      BalanceAPI
	identity viewmodel.Identity
	state    viewmodel.Holder[Balance]
}

func NewService(api BalanceAPI, identity viewmodel.Identity) *Service {
	return &Service{api: api, identity: identity}
}

func (s *Service) State() viewmodel.State[Balance] {
	return s.state.Get()
}

// Load fetches the balance and the transaction list concurrently
func (s *Service) Load(ctx context.Context) (viewmodel.State[Balance], error) {
	telegramID, err := s.identity.TelegramID()
	if err != nil {
		return s.state.Fail(err), err
	}

	st, err := s.state.Run(ctx, func(ctx context.Context) (*Balance, error) {
		return s.fetch(ctx, telegramID)
	})
	if err != nil {
		logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("Failed to load balance")
	}
	return st, err
}

func (s *Service) fetch(ctx context.Context, telegramID int64) (*Balance, error) {
	var (
		wg         sync.WaitGroup
		overview   *models.BalanceOverview
		list       *models.TransactionList
		balanceErr error
		txErr      error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		overview, balanceErr = s.api.GetBalance(ctx, telegramID)
	}()
	go func() {
		defer wg.Done()
		list, txErr = s.api.ListTransactions(ctx, models.Page{Limit: transactionsPageSize})
	}()
	wg.Wait()

	if balanceErr != nil {
		return nil, balanceErr
	}
	if overview == nil {
		overview = &models.BalanceOverview{}
	}

	b := &Balance{Overview: *overview}
	switch {
	case txErr != nil:
		logger.Warn().Err(txErr).Int64("telegram_id", telegramID).Msg("Transactions unavailable")
		b.TransactionsError = errors.UserMessage(txErr)
		b.Transactions = overview.Transactions
	case list != nil:
		b.Transactions = list.Items
	}
	return b, nil
}

// Refresh asks the backend to recompute the balance, then reloads
func (s *Service) Refresh(ctx context.Context) (viewmodel.State[Balance], error) {
	telegramID, err := s.identity.TelegramID()
	if err != nil {
		return s.state.Fail(err), err
	}

	if _, err := s.api.RefreshBalance(ctx, telegramID); err != nil {
		logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("Failed to refresh balance")
		return s.state.Fail(err), err
	}
	return s.Load(ctx)
}
