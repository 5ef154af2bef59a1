package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"github.com/janisto/idcard-onboarding/internal/config"
	"github.com/janisto/idcard-onboarding/internal/http/health"
	"github.com/janisto/idcard-onboarding/internal/http/router"
	"github.com/janisto/idcard-onboarding/internal/platform/auth"
	"github.com/janisto/idcard-onboarding/internal/platform/firebase"
	"github.com/janisto/idcard-onboarding/internal/platform/logging"
	"github.com/janisto/idcard-onboarding/internal/platform/metrics"
	appmiddleware "github.com/janisto/idcard-onboarding/internal/platform/middleware"
	"github.com/janisto/idcard-onboarding/internal/platform/redis"
	profilesvc "github.com/janisto/idcard-onboarding/internal/service/profile"
)

// app is the assembled service with the resources it must release.
type app struct {
	handler http.Handler
	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newApp connects to Firebase and assembles the service.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	clients, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.CredentialsFile,
		WithFirestore:   cfg.ProfileStore == config.StoreFirestore,
	})
	if err != nil {
		return nil, err
	}

	a, err := assemble(ctx, cfg, auth.NewFirebaseVerifier(clients.Auth), clients.Firestore)
	if err != nil {
		_ = clients.Close()
		return nil, err
	}
	a.closers = append([]func() error{clients.Close}, a.closers...)
	return a, nil
}

// assemble wires stores, metrics and middleware around the verifier.
func assemble(
	ctx context.Context,
	cfg *config.Config,
	verifier auth.Verifier,
	fs *firestore.Client,
) (*app, error) {
	a := &app{}

	var store profilesvc.Store
	switch cfg.ProfileStore {
	case config.StoreMemory:
		logging.LogWarn(ctx, "using in-memory profile store; profiles are lost on restart")
		store = profilesvc.NewMemoryStore()
	case config.StoreFirestore:
		if fs == nil {
			return nil, errors.New("firestore profile store requires a firestore client")
		}
		store = profilesvc.NewFirestoreStore(fs)
	default:
		return nil, fmt.Errorf("unknown profile store %q", cfg.ProfileStore)
	}

	var checks []health.Check
	rc, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, rc.Close)
		store = profilesvc.NewCachedStore(store, rc.Client, cfg.ProfileCacheTTL)
		checks = append(checks, health.Check{Name: "redis", Func: rc.Health})
		logging.LogInfo(ctx, "profile cache enabled", zap.Duration("ttl", cfg.ProfileCacheTTL))
	}

	m := metrics.New()
	profiles := profilesvc.NewManager(store, profilesvc.WithRecorder(m))

	var limiter *appmiddleware.RateLimiter
	if cfg.RateLimitEnabled() {
		limiter = appmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	a.handler, _ = router.New(router.Deps{
		Version:      Version,
		Verifier:     verifier,
		Profiles:     profiles,
		Metrics:      m,
		RateLimiter:  limiter,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		HealthChecks: checks,
	})
	return a, nil
}
