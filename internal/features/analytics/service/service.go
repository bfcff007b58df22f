package service

import (
	"context"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

type AnalyticsAPI interface {
	GetAnalytics(ctx context.Context, period string, telegramID int64) (*models.AnalyticsSeries, error)
}

type Service struct {
	api      AnalyticsAPI
	identity viewmodel.Identity
	state    viewmodel.Holder[models.AnalyticsSeries]
}

func NewService(api AnalyticsAPI, identity viewmodel.Identity) *Service {
	return &Service{api: api, identity: identity}
}

func (s *Service) State() viewmodel.State[models.AnalyticsSeries] {
	return s.state.Get()
}

// Load fetches the series for period (daily, weekly or monthly)
func (s *Service) Load(ctx context.Context, period string) (viewmodel.State[models.AnalyticsSeries], error) {
	period, err := models.ParsePeriod(period)
	if err != nil {
		verr := errors.NewValidationError("period", err.Error())
		return s.state.Fail(verr), verr
	}
	telegramID, err := s.identity.TelegramID()
	if err != nil {
		return s.state.Fail(err), err
	}

	st, err := s.state.Run(ctx, func(ctx context.Context) (*models.AnalyticsSeries, error) {
		return s.api.GetAnalytics(ctx, period, telegramID)
	})
	if err != nil {
		logger.Error().Err(err).Str("period", period).Msg("Failed to load analytics")
	}
	return st, err
}
