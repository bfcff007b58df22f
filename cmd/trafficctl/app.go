package main

import (
	"context"
	"fmt"

	"traffic-share-client/internal/api"
	"traffic-share-client/internal/auth"
	"traffic-share-client/internal/auth/storage"
	"traffic-share-client/internal/common/config"
	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/common/validation"
	"traffic-share-client/internal/device"
	analyticsService "traffic-share-client/internal/features/analytics/service"
	balanceService "traffic-share-client/internal/features/balance/service"
	dashboardService "traffic-share-client/internal/features/dashboard/service"
	newsService "traffic-share-client/internal/features/news/service"
	profileService "traffic-share-client/internal/features/profile/service"
	sessionsService "traffic-share-client/internal/features/sessions/service"
	settingsService "traffic-share-client/internal/features/settings/service"
	supportService "traffic-share-client/internal/features/support/service"
	trafficService "traffic-share-client/internal/features/traffic/service"
	withdrawService "traffic-share-client/internal/features/withdraw/service"
	"traffic-share-client/internal/live"
	"traffic-share-client/internal/platform/transport"
)

// app holds the wired client for one command invocation
type app struct {
	cfg      *config.Config
	kv       storage.KeyValueStore
	store    *auth.Store
	client   *api.Client
	deviceID string

	dashboard *dashboardService.Service
	balance   *balanceService.Service
	traffic   *trafficService.Controller
	withdraw  *withdrawService.Service
	analytics *analyticsService.Service
	news      *newsService.Service
	settings  *settingsService.Service
	support   *supportService.Service
	sessions  *sessionsService.Service
	profile   *profileService.Service
	live      *live.Subscriber
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := auth.NewStore(kv)
	if err := store.Bootstrap(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to restore session")
	}

	deviceID, err := device.ID(ctx, kv)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	tr := transport.New(transport.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: fmt.Sprintf("trafficctl/%s", cfg.API.AppVersion),
	}, store, store.HandleUnauthorized)
	client := api.NewClient(tr)

	limits := validation.WithdrawLimits{MinUSD: cfg.Withdraw.MinUSD, MaxUSD: cfg.Withdraw.MaxUSD}

	logger.Debug().
		Str("base_url", cfg.API.BaseURL).
		Str("store", cfg.Credentials.Store).
		Str("device_id", deviceID).
		Str("auth_state", store.State().String()).
		Msg("Client initialized")

	return &app{
		cfg:       cfg,
		kv:        kv,
		store:     store,
		client:    client,
		deviceID:  deviceID,
		dashboard: dashboardService.NewService(client, store),
		balance:   balanceService.NewService(client, store),
		traffic:   trafficService.NewController(client, deviceID),
		withdraw:  withdrawService.NewService(client, store, limits, cfg.Withdraw.Network),
		analytics: analyticsService.NewService(client, store),
		news:      newsService.NewService(client, store),
		settings:  settingsService.NewService(client),
		support:   supportService.NewService(client, store),
		sessions:  sessionsService.NewService(client),
		profile:   profileService.NewService(client, store),
		live: live.NewSubscriber(live.Options{
			BaseURL:        cfg.API.BaseURL,
			PingInterval:   cfg.Session.LivePingInterval,
			OnUnauthorized: store.HandleUnauthorized,
		}, store),
	}, nil
}

func (a *app) close() {
	if err := a.kv.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close credential store")
	}
}

// requireLogin fails fast instead of sending a request that can only 401
func (a *app) requireLogin() error {
	if !a.store.IsAuthenticated() {
		return errors.NewNotAuthenticatedError()
	}
	return nil
}
