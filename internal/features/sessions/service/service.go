package service

import (
	"context"

	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

const DefaultPageSize = 20

type SessionsAPI interface {
	ListSessions(ctx context.Context, page models.Page) (*models.SessionList, error)
	SessionSummary(ctx context.Context) (*models.SessionSummary, error)
}

// Service backs the session history screen
type Service struct {
	api     SessionsAPI
	list    viewmodel.Holder[models.SessionList]
	summary viewmodel.Holder[models.SessionSummary]
}

func NewService(api SessionsAPI) *Service {
	return &Service{api: api}
}

func (s *Service) State() viewmodel.State[models.SessionList] {
	return s.list.Get()
}

func (s *Service) SummaryState() viewmodel.State[models.SessionSummary] {
	return s.summary.Get()
}

func (s *Service) Load(ctx context.Context, page models.Page) (viewmodel.State[models.SessionList], error) {
	if page.Limit <= 0 {
		page.Limit = DefaultPageSize
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	st, err := s.list.Run(ctx, func(ctx context.Context) (*models.SessionList, error) {
		return s.api.ListSessions(ctx, page)
	})
	if err != nil {
		logger.Error().Err(err).Int("offset", page.Offset).Msg("Failed to load sessions")
	}
	return st, err
}

func (s *Service) Summary(ctx context.Context) (viewmodel.State[models.SessionSummary], error) {
	return s.summary.Run(ctx, s.api.SessionSummary)
}
