package service

import (
	"context"

	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/features/viewmodel"
	"traffic-share-client/internal/models"
)

type ProfileAPI interface {
	GetProfile(ctx context.Context) (*models.UserProfile, error)
	RenewToken(ctx context.Context) (*models.TokenRenewResponse, error)
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
}

// Session is the part of the auth store this service drives
type Session interface {
	UpdateProfile(ctx context.Context, user *models.UserProfile) error
	UpdateToken(ctx context.Context, token string) error
	Logout(ctx context.Context) error
}

type Service struct {
	api     ProfileAPI
	session Session
	state   viewmodel.Holder[models.UserProfile]
}

func NewService(api ProfileAPI, session Session) *Service {
	return &Service{api: api, session: session}
}

func (s *Service) State() viewmodel.State[models.UserProfile] {
	return s.state.Get()
}

// Refresh reloads the profile and replaces the cached copy
func (s *Service) Refresh(ctx context.Context) (viewmodel.State[models.UserProfile], error) {
	return s.state.Run(ctx, func(ctx context.Context) (*models.UserProfile, error) {
		user, err := s.api.GetProfile(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.session.UpdateProfile(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	})
}

// RenewToken swaps the current token for a fresh one
func (s *Service) RenewToken(ctx context.Context) error {
	resp, err := s.api.RenewToken(ctx)
	if err != nil {
		return err
	}
	return s.session.UpdateToken(ctx, resp.AccessToken)
}

// Logout ends the server session (all of them when all is set) and always
// clears local credentials.
func (s *Service) Logout(ctx context.Context, all bool) error {
	var err error
	if all {
		err = s.api.LogoutAll(ctx)
	} else {
		err = s.api.Logout(ctx)
	}
	if err != nil {
		logger.Warn().Err(err).Bool("all", all).Msg("Server logout failed, clearing local session")
	}

	s.state.Set(viewmodel.State[models.UserProfile]{})
	return s.session.Logout(ctx)
}
