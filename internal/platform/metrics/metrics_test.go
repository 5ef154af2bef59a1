package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProfileOperation(t *testing.T) {
	m := New()
	m.ProfileOperation("create", "success")
	m.ProfileOperation("create", "success")
	m.ProfileOperation("create", "already_exists")

	if got := testutil.ToFloat64(m.ProfileOperations.WithLabelValues("create", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.ProfileOperations.WithLabelValues("create", "already_exists")); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ProfileOperation("lookup", "success")
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	router := chi.NewRouter()
	router.Use(m.Middleware())
	router.Get("/api/idcard", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, email := range []string{"a@example.com", "b@example.com"} {
		req := httptest.NewRequest(http.MethodGet, "/api/idcard?email="+email, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/idcard", "404")); got != 2 {
		t.Fatalf("expected 2 requests for route, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ProfileOperation("lookup", "not_found")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `idcard_profile_operations_total{operation="lookup",result="not_found"} 1`) {
		t.Fatalf("expected profile counter in output:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatal("expected Go runtime metrics")
	}
}
