package service

import (
	"context"

	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

type Service struct {
	api      DashboardAPI
	identity viewmodel.Identity
	state    viewmodel.Holder[models.Dashboard]
}

func NewService(api DashboardAPI, identity viewmodel.Identity) *Service {
	return &Service{api: api, identity: identity}
}

func (s *Service) State() viewmodel.State[models.Dashboard] {
	return s.state.Get()
}

// Load fetches the dashboard of the logged in user
func (s *Service) Load(ctx context.Context) (viewmodel.State[models.Dashboard], error) {
	telegramID, err := s.identity.TelegramID()
	if err != nil {
		return s.state.Fail(err), err
	}

	st, err := s.state.Run(ctx, func(ctx context.Context) (*models.Dashboard, error) {
		return s.api.GetDashboard(ctx, telegramID)
	})
	if err != nil {
		logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("Failed to load dashboard")
	}
	return st, err
}
