package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the onboarding frontend to call the API. Only the listed
// origins are accepted and credentials are allowed so the browser can send
// the bearer token. An empty list falls back to any origin without
// credentials, which is only useful for local development.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Location", "X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(allowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return cors.Handler(opts)
}
