package onboarding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

const (
	defaultBaseURL         = "http://localhost:8080"
	userAgent              = "idcard-onboarding"
	lookupPath             = "/api/idcard"
	onboardPath            = "/api/onboard"
	alreadyOnboardedDetail = "profile already onboarded"
	maxErrorBody           = 64 << 10
)

// APIError carries the problem details of a failed API call.
type APIError struct {
	Status int
	Detail string
	Fields []string
	cause  error
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("profile api error (status=%d): %v", e.Status, e.cause)
	}
	return fmt.Sprintf("profile api error (status=%d): %s", e.Status, e.Detail)
}

// Unwrap enables errors.Is against the client sentinel errors.
func (e *APIError) Unwrap() error {
	return e.cause
}

// APIClient implements ProfileAPI over the REST endpoints.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures an APIClient.
type Option func(*APIClient)

// WithBaseURL sets the API base URL.
func WithBaseURL(u string) Option {
	return func(c *APIClient) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// NewAPIClient creates a client. A nil httpClient uses http.DefaultClient.
func NewAPIClient(httpClient *http.Client, opts ...Option) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &APIClient{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches the profile of the signed-in user.
func (c *APIClient) Lookup(ctx context.Context, id Identity) (*Profile, error) {
	q := url.Values{"email": {id.NormalizedEmail()}}
	resp, err := c.doRequest(ctx, http.MethodGet, lookupPath+"?"+q.Encode(), id.Token, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching profile: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var p Profile
	if err := decodeResponse(resp, http.StatusOK, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create submits the onboarding form for the signed-in user.
func (c *APIClient) Create(ctx context.Context, id Identity, form Form) (*Profile, error) {
	form.Email = id.NormalizedEmail()
	body, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, onboardPath, id.Token, body)
	if err != nil {
		return nil, fmt.Errorf("%w: submitting form: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var p Profile
	if err := decodeResponse(resp, http.StatusCreated, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *APIClient) doRequest(
	ctx context.Context,
	method, path, token string,
	body []byte,
) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, want int, target any) error {
	if resp.StatusCode == want {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decoding profile response: %w", err)
		}
		return nil
	}
	return errorFromResponse(resp)
}

// errorFromResponse maps a problem details response to a client error.
func errorFromResponse(resp *http.Response) error {
	var model huma.ErrorModel
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(data, &model)

	apiErr := &APIError{Status: resp.StatusCode, Detail: model.Detail}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		apiErr.cause = ErrNotFound
	case resp.StatusCode == http.StatusBadRequest && model.Detail == alreadyOnboardedDetail:
		apiErr.cause = ErrAlreadyExists
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		fields := make([]string, 0, len(model.Errors))
		for _, d := range model.Errors {
			if d == nil {
				continue
			}
			_, field, _ := strings.Cut(d.Location, ".")
			fields = append(fields, field)
		}
		apiErr.Fields = fields
		apiErr.cause = &InvalidInputError{Fields: fields}
	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.cause = ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		apiErr.cause = ErrForbidden
	default:
		apiErr.cause = ErrUnavailable
	}
	return apiErr
}

var _ ProfileAPI = (*APIClient)(nil)
