package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/janisto/idcard-onboarding/internal/config"
	"github.com/janisto/idcard-onboarding/internal/platform/httpserver"
	"github.com/janisto/idcard-onboarding/internal/platform/logging"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	defer func() {
		if err := logging.Sync(); err != nil {
			logging.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := logging.Err(); err != nil {
		logging.LogError(context.Background(), "logger init error", err)
	}

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logging.LogFatal(ctx, "config load failed", err)
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		logging.LogError(ctx, "log level not applied", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.LogFatal(ctx, "startup failed", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.LogError(context.Background(), "resource close error", err)
		}
	}()

	srv := httpserver.New(cfg.Addr(), a.handler)

	listenErr := make(chan error, 1)
	go func() {
		logging.LogInfo(ctx, "server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("profileStore", cfg.ProfileStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		logging.LogError(ctx, "listen failed", err, zap.String("addr", srv.Addr))
		_ = a.Close()
		_ = logging.Sync()
		os.Exit(1)
	case <-stop:
		logging.LogInfo(ctx, "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(shutdownCtx, "server shutdown error", err)
	}
	logging.LogInfo(ctx, "server exited")
}
