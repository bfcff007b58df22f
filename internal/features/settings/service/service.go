package service

import (
	"context"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

const DefaultSuccessMessage = "Settings updated"

type SettingsAPI interface {
	UpdateSettings(ctx context.Context, req models.SettingsUpdate) (*models.GenericResponse, error)
}

// Result carries the confirmation shown after saving
type Result struct {
	Message string `json:"message"`
}

type Service struct {
	api   SettingsAPI
	state viewmodel.Holder[Result]
}

func NewService(api SettingsAPI) *Service {
	return &Service{api: api}
}

func (s *Service) State() viewmodel.State[Result] {
	return s.state.Get()
}

// Update sends only the fields set in update
func (s *Service) Update(ctx context.Context, update models.SettingsUpdate) (viewmodel.State[Result], error) {
	if update.Empty() {
		err := errors.NewValidationError("settings", "nothing to update")
		return s.state.Fail(err), err
	}

	st, err := s.state.Run(ctx, func(ctx context.Context) (*Result, error) {
		resp, err := s.api.UpdateSettings(ctx, update)
		if err != nil {
			return nil, err
		}
		msg := resp.Message
		if msg == "" {
			msg = DefaultSuccessMessage
		}
		return &Result{Message: msg}, nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update settings")
	}
	return st, err
}
