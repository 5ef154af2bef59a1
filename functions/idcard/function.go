// Package idcard serves the onboarding API as an HTTP Cloud Function backed
// by Firestore.
package idcard

import (
	"context"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/janisto/idcard-onboarding/internal/config"
	"github.com/janisto/idcard-onboarding/internal/http/router"
	"github.com/janisto/idcard-onboarding/internal/platform/auth"
	"github.com/janisto/idcard-onboarding/internal/platform/firebase"
	"github.com/janisto/idcard-onboarding/internal/platform/logging"
	"github.com/janisto/idcard-onboarding/internal/platform/metrics"
	"github.com/janisto/idcard-onboarding/internal/platform/respond"
	profilesvc "github.com/janisto/idcard-onboarding/internal/service/profile"
)

func init() {
	functions.HTTP("IDCard", serve)
}

// newHandler builds the API on first use so a cold start without
// credentials still answers with a problem response.
var newHandler = func(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	clients, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.CredentialsFile,
		WithFirestore:   true,
	})
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	h, _ := router.New(router.Deps{
		Version:     "function",
		Verifier:    auth.NewFirebaseVerifier(clients.Auth),
		Profiles:    profilesvc.NewManager(profilesvc.NewFirestoreStore(clients.Firestore), profilesvc.WithRecorder(m)),
		Metrics:     m,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})
	return h, nil
}

var (
	initMu  sync.Mutex
	handler http.Handler
)

// current returns the API handler, building it if no earlier attempt
// succeeded. A failed build is retried on the next request.
func current(ctx context.Context) (http.Handler, error) {
	initMu.Lock()
	defer initMu.Unlock()
	if handler != nil {
		return handler, nil
	}
	h, err := newHandler(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	handler = h
	return handler, nil
}

func serve(w http.ResponseWriter, r *http.Request) {
	h, err := current(r.Context())
	if err != nil {
		logging.LogError(r.Context(), "function init failed", err)
		respond.WriteProblem(w, r, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	h.ServeHTTP(w, r)
}
