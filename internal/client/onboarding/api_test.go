package onboarding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/janisto/idcard-onboarding/internal/http/router"
	"github.com/janisto/idcard-onboarding/internal/platform/auth"
	profilesvc "github.com/janisto/idcard-onboarding/internal/service/profile"
)

var (
	jane = Identity{Email: "Jane@Example.com", Token: "jane-token"}
	bob  = Identity{Email: "bob@example.com", Token: "bob-token"}
)

func completeForm() Form {
	return Form{
		Name:       "Jane Doe",
		FatherName: "John Doe",
		Address:    "1 Main St, Springfield",
		DOB:        "1990-05-17",
		Occupation: "Engineer",
		Gender:     "female",
	}
}

// newTestServer serves the real API over an in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	verifier := &auth.MockVerifier{Tokens: map[string]*auth.Identity{
		jane.Token: {UID: "jane-uid", Email: "jane@example.com", EmailVerified: true},
		bob.Token:  {UID: "bob-uid", Email: "bob@example.com", EmailVerified: true},
	}}
	h, _ := router.New(router.Deps{
		Version:  "test",
		Verifier: verifier,
		Profiles: profilesvc.NewManager(profilesvc.NewMemoryStore()),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(serverURL string) *APIClient {
	return NewAPIClient(http.DefaultClient, WithBaseURL(serverURL))
}

func TestAPIClientLookupNotFound(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	_, err := client.Lookup(t.Context(), jane)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected APIError with 404, got %v", err)
	}
}

func TestAPIClientCreateThenLookup(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	created, err := client.Create(t.Context(), jane, completeForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Email != "jane@example.com" {
		t.Fatalf("expected normalized email, got %s", created.Email)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned fields, got %+v", created)
	}

	got, err := client.Lookup(t.Context(), jane)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != created.ID || got.Name != "Jane Doe" || got.Gender != "female" {
		t.Fatalf("lookup mismatch: %+v vs %+v", got, created)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected createdAt %v, got %v", created.CreatedAt, got.CreatedAt)
	}
}

func TestAPIClientCreateForcesIdentityEmail(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	form := completeForm()
	form.Email = "someone-else@example.com"
	p, err := client.Create(t.Context(), jane, form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Email != "jane@example.com" {
		t.Fatalf("expected identity email, got %s", p.Email)
	}
}

func TestAPIClientCreateDuplicate(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	if _, err := client.Create(t.Context(), jane, completeForm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := client.Create(t.Context(), jane, completeForm())
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Fatal("duplicate must not be reported as invalid input")
	}
}

func TestAPIClientCreateMissingFields(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	form := completeForm()
	form.Address = ""
	form.Gender = "  "
	_, err := client.Create(t.Context(), jane, form)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %T", err)
	}
	if len(invalid.Fields) != 2 || invalid.Fields[0] != FieldAddress || invalid.Fields[1] != FieldGender {
		t.Fatalf("expected [address gender], got %v", invalid.Fields)
	}
}

func TestAPIClientCreateFieldTooLong(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	form := completeForm()
	form.Name = strings.Repeat("a", 201)
	_, err := client.Create(t.Context(), jane, form)
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("a rejected field must not look like an outage: %v", err)
	}
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if len(invalid.Fields) != 1 || invalid.Fields[0] != FieldName {
		t.Fatalf("expected [name], got %v", invalid.Fields)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected APIError with 400, got %v", err)
	}
}

func TestAPIClientValidationProblem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"title":"Unprocessable Entity","status":422,"detail":"validation failed",` +
			`"errors":[{"message":"expected length <= 50","location":"body.gender"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Create(t.Context(), jane, completeForm())
	if !errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) || len(invalid.Fields) != 1 || invalid.Fields[0] != FieldGender {
		t.Fatalf("expected [gender], got %v", err)
	}
}

func TestAPIClientUnauthorized(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	_, err := client.Lookup(t.Context(), Identity{Email: "jane@example.com", Token: "unknown"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAPIClientForbiddenForOtherEmail(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	_, err := client.Lookup(t.Context(), Identity{Email: "jane@example.com", Token: bob.Token})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAPIClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"title":"Internal Server Error","status":500,"detail":"internal error"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Lookup(t.Context(), jane)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "internal error" {
		t.Fatalf("expected problem detail, got %v", err)
	}
}

func TestAPIClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Lookup(t.Context(), jane)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAPIClientSendsHeaders(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _ = newTestClient(srv.URL+"/").Lookup(t.Context(), jane)
	if got == nil {
		t.Fatal("expected request")
	}
	if got.URL.Path != lookupPath {
		t.Fatalf("unexpected path %s", got.URL.Path)
	}
	if got.URL.Query().Get("email") != "jane@example.com" {
		t.Fatalf("expected normalized email query, got %s", got.URL.RawQuery)
	}
	if got.Header.Get("Authorization") != "Bearer jane-token" {
		t.Fatalf("unexpected authorization %q", got.Header.Get("Authorization"))
	}
	if got.Header.Get("User-Agent") != userAgent {
		t.Fatalf("unexpected user agent %q", got.Header.Get("User-Agent"))
	}
}

func TestAPIClientConcurrentCreate(t *testing.T) {
	client := newTestClient(newTestServer(t).URL)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			_, errs[i] = client.Create(t.Context(), jane, completeForm())
		})
	}
	wg.Wait()

	created, duplicates := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrAlreadyExists):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 || duplicates != n-1 {
		t.Fatalf("expected 1 created and %d duplicates, got %d and %d", n-1, created, duplicates)
	}
}
