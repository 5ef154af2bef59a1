package auth

import (
	"context"
)

// MockVerifier is a Verifier for tests. Tokens maps individual tokens to
// identities; any other token resolves to Identity, or fails with Error.
type MockVerifier struct {
	Identity *Identity
	Tokens   map[string]*Identity
	Error    error
}

// Verify implements Verifier.
func (m *MockVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if id, ok := m.Tokens[token]; ok {
		return id, nil
	}
	if m.Identity == nil {
		return nil, ErrInvalidToken
	}
	return m.Identity, nil
}

// TestIdentity returns a verified identity for test@example.com.
func TestIdentity() *Identity {
	return &Identity{
		UID:           "test-user-123",
		Email:         "test@example.com",
		EmailVerified: true,
	}
}

var _ Verifier = (*MockVerifier)(nil)
