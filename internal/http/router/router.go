// Package router assembles the HTTP handler: middleware stack, huma API,
// health and metrics endpoints.
package router

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/idcard-onboarding/internal/http/health"
	"github.com/janisto/idcard-onboarding/internal/http/v1/routes"
	"github.com/janisto/idcard-onboarding/internal/platform/auth"
	"github.com/janisto/idcard-onboarding/internal/platform/logging"
	"github.com/janisto/idcard-onboarding/internal/platform/metrics"
	appmiddleware "github.com/janisto/idcard-onboarding/internal/platform/middleware"
	"github.com/janisto/idcard-onboarding/internal/platform/respond"
	profilesvc "github.com/janisto/idcard-onboarding/internal/service/profile"
)

const (
	DocsPath    = "/api-docs"
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Deps are the collaborators the handler needs. Metrics and RateLimiter
// are optional.
type Deps struct {
	Version      string
	Verifier     auth.Verifier
	Profiles     profilesvc.Service
	Metrics      *metrics.Metrics
	RateLimiter  *appmiddleware.RateLimiter
	CORSOrigins  []string
	HealthChecks []health.Check
}

// New returns the root handler and the huma API registered on it.
func New(d Deps) (http.Handler, huma.API) {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(DocsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(d.CORSOrigins),
		appmiddleware.RequestID(),
		// RealIP trusts X-Forwarded-For; only deploy behind a trusted proxy (Cloud Run).
		chimiddleware.RealIP,
		chimiddleware.RequestSize(1<<20),
		logging.RequestLogger(),
		logging.AccessLogger(HealthPath),
	)
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
	}
	if d.RateLimiter != nil {
		router.Use(d.RateLimiter.Middleware(HealthPath, MetricsPath))
	}
	router.Use(respond.Recoverer())

	router.Get(HealthPath, health.Handler(d.HealthChecks...))
	if d.Metrics != nil {
		router.Handle(MetricsPath, d.Metrics.Handler())
	}

	cfg := huma.DefaultConfig("ID Card Onboarding API", d.Version)
	cfg.DocsPath = DocsPath
	api := humachi.New(router, cfg)

	// Advertise CBOR alongside JSON for every body.
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)

	routes.Register(api, d.Verifier, d.Profiles)
	return router, api
}
