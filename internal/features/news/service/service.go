package service

import (
	"context"
	"strings"

	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/common/validation"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

type NewsAPI interface {
	GetNewsPromo(ctx context.Context) (*models.NewsPromo, error)
	ActivatePromo(ctx context.Context, req models.PromoActivateRequest) (*models.GenericResponse, error)
}

type Service struct {
	api      NewsAPI
	identity viewmodel.Identity
	state    viewmodel.Holder[models.NewsPromo]
	promo    viewmodel.Holder[models.GenericResponse]
}

func NewService(api NewsAPI, identity viewmodel.Identity) *Service {
	return &Service{api: api, identity: identity}
}

func (s *Service) State() viewmodel.State[models.NewsPromo] {
	return s.state.Get()
}

func (s *Service) Load(ctx context.Context) (viewmodel.State[models.NewsPromo], error) {
	st, err := s.state.Run(ctx, s.api.GetNewsPromo)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load news")
	}
	return st, err
}

// ActivatePromo redeems code for the logged in user
func (s *Service) ActivatePromo(ctx context.Context, code string) (viewmodel.State[models.GenericResponse], error) {
	code = strings.TrimSpace(code)
	if err := validation.ValidatePromoCode(code); err != nil {
		return s.promo.Fail(err), err
	}
	telegramID, err := s.identity.TelegramID()
	if err != nil {
		return s.promo.Fail(err), err
	}

	return s.promo.Run(ctx, func(ctx context.Context) (*models.GenericResponse, error) {
		resp, err := s.api.ActivatePromo(ctx, models.PromoActivateRequest{UserID: telegramID, Code: code})
		if err != nil {
			return nil, err
		}
		if resp.Message == "" {
			resp.Message = "Promo code activated"
		}
		return resp, nil
	})
}
