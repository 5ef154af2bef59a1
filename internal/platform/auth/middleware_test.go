package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/janisto/idcard-onboarding/internal/platform/logging"
)

type whoamiOutput struct {
	Body struct {
		UID   string `json:"uid"`
		Actor string `json:"actor"`
	}
}

func setupTestAPI(verifier Verifier, secured bool) *chi.Mux {
	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(NewAuthMiddleware(api, verifier))

	var security []map[string][]string
	if secured {
		security = []map[string][]string{{SecurityScheme: {}}}
	}
	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/whoami",
		Security:    security,
	}, func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		out := &whoamiOutput{}
		if id := IdentityFromContext(ctx); id != nil {
			out.Body.UID = id.UID
		}
		out.Body.Actor = logging.ActorFromContext(ctx)
		return out, nil
	})
	return router
}

func TestMiddlewareSkipsUnsecuredOperations(t *testing.T) {
	router := setupTestAPI(&MockVerifier{Error: ErrInvalidToken}, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMiddlewareStoresIdentityAndActor(t *testing.T) {
	router := setupTestAPI(&MockVerifier{Identity: TestIdentity()}, true)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		UID   string `json:"uid"`
		Actor string `json:"actor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UID != "test-user-123" || body.Actor != "test-user-123" {
		t.Fatalf("unexpected identity in context: %+v", body)
	}
}

func TestMiddlewareRejections(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		verifyErr  error
		wantStatus int
		wantHeader string
	}{
		{"missing header", "", nil, http.StatusUnauthorized, "WWW-Authenticate"},
		{"malformed header", "Token abc", nil, http.StatusUnauthorized, "WWW-Authenticate"},
		{"expired", "Bearer abc", ErrTokenExpired, http.StatusUnauthorized, "WWW-Authenticate"},
		{"revoked", "Bearer abc", ErrTokenRevoked, http.StatusUnauthorized, "WWW-Authenticate"},
		{"cert fetch", "Bearer abc", ErrCertificateFetch, http.StatusServiceUnavailable, "Retry-After"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &MockVerifier{Identity: TestIdentity(), Error: tt.verifyErr}
			router := setupTestAPI(verifier, true)

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if rec.Header().Get(tt.wantHeader) == "" {
				t.Fatalf("expected %s header", tt.wantHeader)
			}
		})
	}
}

func TestCategorizeAuthError(t *testing.T) {
	tests := map[error]string{
		ErrTokenExpired:     "token_expired",
		ErrTokenRevoked:     "token_revoked",
		ErrUserDisabled:     "user_disabled",
		ErrCertificateFetch: "certificate_fetch_failed",
		ErrInvalidToken:     "invalid_token",
		context.Canceled:    "unknown",
	}
	for err, want := range tests {
		if got := categorizeAuthError(err); got != want {
			t.Errorf("categorizeAuthError(%v) = %q, want %q", err, got, want)
		}
	}
}
