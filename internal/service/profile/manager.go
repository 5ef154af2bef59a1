package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/janisto/idcard-onboarding/internal/platform/logging"
	"github.com/janisto/idcard-onboarding/internal/platform/timeutil"
)

// Recorder counts service outcomes. *metrics.Metrics implements it.
type Recorder interface {
	ProfileOperation(operation, result string)
}

type nopRecorder struct{}

func (nopRecorder) ProfileOperation(string, string) {}

// Manager implements Service on top of a Store.
type Manager struct {
	store    Store
	clock    timeutil.Clock
	newID    func() string
	recorder Recorder
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the creation timestamp source.
func WithClock(c timeutil.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithIDGenerator overrides profile ID generation.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// WithRecorder reports operation outcomes, typically to Prometheus.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// NewManager returns a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		clock:    timeutil.UTC,
		newID:    uuid.NewString,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lookup returns the profile for email. It never writes.
func (m *Manager) Lookup(ctx context.Context, email string) (*Profile, error) {
	email = NormalizeEmail(email)
	p, err := m.lookup(ctx, email)
	m.record(ctx, "lookup", email, err)
	return p, err
}

func (m *Manager) lookup(ctx context.Context, email string) (*Profile, error) {
	if email == "" {
		return nil, &InvalidInputError{Fields: []string{FieldEmail}}
	}
	p, err := m.store.Find(ctx, email)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, ErrNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

// Create validates params and persists a new profile. Validation happens
// before any store access, so invalid input never causes a write.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*Profile, error) {
	params = params.normalize()
	p, err := m.create(ctx, params)
	m.record(ctx, "create", params.Email, err)
	return p, err
}

func (m *Manager) create(ctx context.Context, params CreateParams) (*Profile, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// The pre-check gives a clean AlreadyExists for the common case; Insert
	// still decides races.
	_, err := m.store.Find(ctx, params.Email)
	switch {
	case err == nil:
		return nil, ErrAlreadyExists
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	p := &Profile{
		ID:         m.newID(),
		Email:      params.Email,
		Name:       params.Name,
		FatherName: params.FatherName,
		Address:    params.Address,
		DOB:        params.DOB,
		Occupation: params.Occupation,
		Gender:     params.Gender,
		CreatedAt:  m.clock().UTC(),
	}
	if err := m.store.Insert(ctx, p); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return p, nil
}

func (m *Manager) record(ctx context.Context, action, email string, err error) {
	result := categorizeError(err)
	m.recorder.ProfileOperation(action, result)

	ev := logging.AuditEvent{
		Action:       action,
		ResourceType: "profile",
		ResourceID:   logging.MaskEmail(email),
		Result:       "success",
	}
	if err != nil {
		ev.Result = "failure"
		ev.Details = map[string]any{"error": result}
	}
	logging.LogAuditEvent(ctx, ev)
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

var _ Service = (*Manager)(nil)
