package profile

import (
	"context"
	"sync"
)

// MemoryStore keeps profiles in a map. It backs PROFILE_STORE=memory for
// local development and the unit tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

// Find implements Store.
func (s *MemoryStore) Find(ctx context.Context, email string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Insert implements Store. The check and the write happen under one lock.
func (s *MemoryStore) Insert(ctx context.Context, p *Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := NormalizeEmail(p.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[key]; exists {
		return ErrAlreadyExists
	}
	s.profiles[key] = *p
	return nil
}

// Len returns the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

var _ Store = (*MemoryStore)(nil)
