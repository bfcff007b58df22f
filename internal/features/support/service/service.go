package service

import (
	"context"
	"strings"

	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/common/validation"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

type SupportAPI interface {
	SendSupport(ctx context.Context, req models.SupportCreate) (*models.GenericResponse, error)
	GetSupportHistory(ctx context.Context) (*models.SupportHistory, error)
}

type Service struct {
	api      SupportAPI
	identity viewmodel.Identity
	send     viewmodel.Holder[models.GenericResponse]
	history  viewmodel.Holder[models.SupportHistory]
}

func NewService(api SupportAPI, identity viewmodel.Identity) *Service {
	return &Service{api: api, identity: identity}
}

func (s *Service) State() viewmodel.State[models.GenericResponse] {
	return s.send.Get()
}

func (s *Service) HistoryState() viewmodel.State[models.SupportHistory] {
	return s.history.Get()
}

// Send opens a support ticket
func (s *Service) Send(ctx context.Context, subject, message string) (viewmodel.State[models.GenericResponse], error) {
	if err := validation.ValidateSupportRequest(subject, message); err != nil {
		return s.send.Fail(err), err
	}
	telegramID, err := s.identity.TelegramID()
	if err != nil {
		return s.send.Fail(err), err
	}

	req := models.SupportCreate{
		TelegramID: telegramID,
		Subject:    strings.TrimSpace(subject),
		Message:    strings.TrimSpace(message),
	}
	st, err := s.send.Run(ctx, func(ctx context.Context) (*models.GenericResponse, error) {
		resp, err := s.api.SendSupport(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.Message == "" {
			resp.Message = "Request sent"
		}
		return resp, nil
	})
	if err != nil {
		logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("Failed to send support request")
	}
	return st, err
}

func (s *Service) History(ctx context.Context) (viewmodel.State[models.SupportHistory], error) {
	return s.history.Run(ctx, s.api.GetSupportHistory)
}
