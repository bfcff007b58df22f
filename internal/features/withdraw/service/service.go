package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/common/validation"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

const DefaultNetwork = "BEP20"

// Result is the outcome of a submitted withdraw
type Result struct {
	Message        string `json:"message"`
	TransactionID  int64  `json:"transaction_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

type Service struct {
	api      WithdrawAPI
	identity viewmodel.Identity
	limits   validation.WithdrawLimits
	network  string

	submit  viewmodel.Holder[Result]
	history viewmodel.Holder[models.WithdrawList]
}

func NewService(api WithdrawAPI, identity viewmodel.Identity, limits validation.WithdrawLimits, network string) *Service {
	if network == "" {
		network = DefaultNetwork
	}
	return &Service{api: api, identity: identity, limits: limits, network: network}
}

func (s *Service) State() viewmodel.State[Result] {
	return s.submit.Get()
}

func (s *Service) HistoryState() viewmodel.State[models.WithdrawList] {
	return s.history.Get()
}

// Submit validates the request locally and sends it. Nothing is sent when
// validation fails.
func (s *Service) Submit(ctx context.Context, amountUSD float64, wallet string) (viewmodel.State[Result], error) {
	telegramID, err := s.identity.TelegramID()
	if err != nil {
		return s.submit.Fail(err), err
	}
	if err := validation.ValidateWithdrawAmount(amountUSD, s.limits); err != nil {
		return s.submit.Fail(err), err
	}
	wallet = strings.TrimSpace(wallet)
	if err := validation.ValidateBEP20Address(wallet); err != nil {
		return s.submit.Fail(err), err
	}

	req := models.WithdrawRequest{
		TelegramID:     telegramID,
		AmountUSD:      amountUSD,
		WalletAddress:  wallet,
		Network:        s.network,
		IdempotencyKey: uuid.NewString(),
	}

	st, err := s.submit.Run(ctx, func(ctx context.Context) (*Result, error) {
		resp, err := s.api.CreateWithdraw(ctx, req)
		if err != nil {
			return nil, err
		}
		msg := resp.Message
		if msg == "" {
			msg = "Withdraw request created"
		}
		return &Result{Message: msg, TransactionID: resp.TransactionID, IdempotencyKey: req.IdempotencyKey}, nil
	})
	if err != nil {
		logger.Error().
			Err(err).
			Int64("telegram_id", telegramID).
			Float64("amount_usd", amountUSD).
			Msg("Withdraw failed")
		return st, err
	}

	logger.Info().
		Int64("telegram_id", telegramID).
		Float64("amount_usd", amountUSD).
		Str("idempotency_key", req.IdempotencyKey).
		Msg("Withdraw requested")
	return st, nil
}

// History lists past withdraw requests
func (s *Service) History(ctx context.Context) (viewmodel.State[models.WithdrawList], error) {
	return s.history.Run(ctx, s.api.ListWithdraws)
}
