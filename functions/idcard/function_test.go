package idcard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func reset(t *testing.T, build func(context.Context) (http.Handler, error)) {
	t.Helper()
	orig := newHandler
	newHandler = build
	handler = nil
	t.Cleanup(func() {
		newHandler = orig
		handler = nil
	})
}

func TestServeInitFailure(t *testing.T) {
	calls := 0
	reset(t, func(context.Context) (http.Handler, error) {
		calls++
		return nil, errors.New("no credentials")
	})

	for range 2 {
		resp := httptest.NewRecorder()
		serve(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
		if resp.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", resp.Code)
		}
		if resp.Header().Get("Content-Type") != "application/problem+json" {
			t.Fatalf("expected problem response, got %q", resp.Header().Get("Content-Type"))
		}
	}
	if calls != 2 {
		t.Fatalf("expected init to be retried per request, got %d attempts", calls)
	}
}

func TestServeRecoversAfterInitFailure(t *testing.T) {
	calls := 0
	reset(t, func(context.Context) (http.Handler, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("firestore not ready")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}), nil
	})

	want := []int{http.StatusServiceUnavailable, http.StatusNoContent, http.StatusNoContent}
	for i, code := range want {
		resp := httptest.NewRecorder()
		serve(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
		if resp.Code != code {
			t.Fatalf("request %d: expected %d, got %d", i, code, resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected the handler to be kept after success, got %d builds", calls)
	}
}

func TestServeConcurrentColdStart(t *testing.T) {
	var calls atomic.Int32
	reset(t, func(context.Context) (http.Handler, error) {
		calls.Add(1)
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}), nil
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			serve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		})
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Fatalf("expected a single build, got %d", calls.Load())
	}
}

func TestServeDelegates(t *testing.T) {
	reset(t, func(context.Context) (http.Handler, error) {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}), nil
	})

	resp := httptest.NewRecorder()
	serve(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected delegated status, got %d", resp.Code)
	}
}
