package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traffic-share-client/internal/common/config"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/devserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}
	logger.Init("traffic-devserver", cfg.Debug)

	logger.Info().
		Bool("debug", cfg.Debug).
		Int("port", cfg.DevServer.Port).
		Msg("Starting traffic dev server")

	srv := devserver.New(devserver.Options{
		Secret:         cfg.DevServer.Secret,
		Origin:         cfg.DevServer.Origin,
		StartBalance:   cfg.DevServer.StartBalance,
		MinWithdrawUSD: cfg.Withdraw.MinUSD,
		Debug:          cfg.Debug,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.DevServer.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("base_path", devserver.BasePath).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
