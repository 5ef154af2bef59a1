package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// State is the client view state.
type State int

const (
	Anonymous State = iota
	NoProfile
	HasProfile
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case NoProfile:
		return "no_profile"
	case HasProfile:
		return "has_profile"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// View is the screen shown for a state.
type View int

const (
	ViewSignIn View = iota
	ViewForm
	ViewCard
)

func (v View) String() string {
	switch v {
	case ViewSignIn:
		return "sign_in"
	case ViewForm:
		return "form"
	case ViewCard:
		return "card"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// View returns the screen for s.
func (s State) View() View {
	switch s {
	case NoProfile:
		return ViewForm
	case HasProfile:
		return ViewCard
	default:
		return ViewSignIn
	}
}

// Machine drives the onboarding flow for one user session. Methods are safe
// to call from multiple goroutines but transitions are serialized.
type Machine struct {
	api    ProfileAPI
	cache  Cache
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	identity *Identity
	profile  *Profile
	lastErr  error
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithLogger sets the logger used for cache failures.
func WithLogger(l *zap.Logger) MachineOption {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMachine creates a Machine in the Anonymous state. A nil cache disables
// local caching.
func NewMachine(api ProfileAPI, cache Cache, opts ...MachineOption) *Machine {
	if cache == nil {
		cache = nopCache{}
	}
	m := &Machine{
		api:    api,
		cache:  cache,
		logger: zap.NewNop(),
		state:  Anonymous,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View returns the screen for the current state.
func (m *Machine) View() View {
	return m.State().View()
}

// Profile returns a copy of the resolved profile, or nil.
func (m *Machine) Profile() *Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	cp := *m.profile
	return &cp
}

// Identity returns the signed-in identity, or nil when Anonymous.
func (m *Machine) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	cp := *m.identity
	return &cp
}

// Err returns the error surfaced by the last transition, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// SignIn resolves the profile of a freshly signed-in user. A lookup failure
// other than not found leaves the user on the form with the error surfaced.
// A rejected token keeps the machine Anonymous.
func (m *Machine) SignIn(ctx context.Context, id Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(id); err != nil {
		return err
	}
	return m.lookup(ctx, id)
}

// Restore resumes a session after a restart. A cached profile for the same
// email is shown without calling the API.
func (m *Machine) Restore(ctx context.Context, id Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(id); err != nil {
		return err
	}
	p, err := m.cache.Load(id.NormalizedEmail())
	if err != nil {
		m.logger.Warn("profile cache read failed", zap.Error(err))
	}
	if p != nil && p.Email == id.NormalizedEmail() {
		m.identity = &id
		m.enterHasProfile(p, false)
		return nil
	}
	return m.lookup(ctx, id)
}

// Submit sends the onboarding form. The form email is always replaced by
// the identity email, and an incomplete form is rejected without a request.
func (m *Machine) Submit(ctx context.Context, form Form) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != NoProfile || m.identity == nil {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, m.state)
	}

	form.Email = m.identity.NormalizedEmail()
	if missing := form.Missing(); len(missing) > 0 {
		err := &InvalidInputError{Fields: missing}
		m.lastErr = err
		return nil, err
	}

	p, err := m.api.Create(ctx, *m.identity, form)
	if err != nil {
		m.lastErr = err
		return nil, err
	}
	m.enterHasProfile(p, true)
	cp := *p
	return &cp, nil
}

// SignOut returns to Anonymous from any state and clears the cache.
func (m *Machine) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Anonymous
	m.identity = nil
	m.profile = nil
	m.lastErr = nil
	if err := m.cache.Clear(); err != nil {
		return fmt.Errorf("clearing profile cache: %w", err)
	}
	return nil
}

func (m *Machine) begin(id Identity) error {
	if m.state != Anonymous {
		return fmt.Errorf("%w: sign in from %s", ErrInvalidTransition, m.state)
	}
	if id.NormalizedEmail() == "" {
		return ErrNoIdentity
	}
	m.lastErr = nil
	return nil
}

func (m *Machine) lookup(ctx context.Context, id Identity) error {
	p, err := m.api.Lookup(ctx, id)
	switch {
	case err == nil:
		m.identity = &id
		m.enterHasProfile(p, true)
		return nil
	case errors.Is(err, ErrNotFound):
		m.identity = &id
		m.state = NoProfile
		return nil
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		m.lastErr = err
		return err
	default:
		m.identity = &id
		m.state = NoProfile
		m.lastErr = err
		return err
	}
}

// enterHasProfile must be called with mu held.
func (m *Machine) enterHasProfile(p *Profile, save bool) {
	cp := *p
	m.profile = &cp
	m.state = HasProfile
	if !save {
		return
	}
	if err := m.cache.Save(&cp); err != nil {
		m.logger.Warn("profile cache write failed", zap.Error(err))
	}
}

type nopCache struct{}

func (nopCache) Load(string) (*Profile, error) { return nil, nil }
func (nopCache) Save(*Profile) error           { return nil }
func (nopCache) Clear() error                  { return nil }
