package profile

import (
	"context"
	"errors"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/janisto/idcard-onboarding/internal/platform/logging"
)

const cacheKeyPrefix = "profile:email:"

// cachedProfile is the CBOR value stored in Redis.
type cachedProfile struct {
	ID         string    `cbor:"1,keyasint"`
	Email      string    `cbor:"2,keyasint"`
	Name       string    `cbor:"3,keyasint"`
	FatherName string    `cbor:"4,keyasint"`
	Address    string    `cbor:"5,keyasint"`
	DOB        string    `cbor:"6,keyasint"`
	Occupation string    `cbor:"7,keyasint"`
	Gender     string    `cbor:"8,keyasint"`
	CreatedAt  time.Time `cbor:"9,keyasint"`
}

var cacheEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// CachedStore is a read-through Redis cache in front of another Store.
// Profiles are write-once, so a cached entry can never go stale; misses are
// not cached because a profile may be created at any time. Redis errors are
// logged and the wrapped store answers instead.
type CachedStore struct {
	next   Store
	client redis.Cmdable
	ttl    time.Duration
}

// NewCachedStore wraps next with a cache on client.
func NewCachedStore(next Store, client redis.Cmdable, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, client: client, ttl: ttl}
}

func cacheKey(email string) string {
	return cacheKeyPrefix + NormalizeEmail(email)
}

// Find implements Store.
func (s *CachedStore) Find(ctx context.Context, email string) (*Profile, error) {
	if p, ok := s.get(ctx, email); ok {
		return p, nil
	}
	p, err := s.next.Find(ctx, email)
	if err != nil {
		return nil, err
	}
	s.set(ctx, p)
	return p, nil
}

// Insert implements Store. The cache is filled only after the wrapped store
// accepted the profile.
func (s *CachedStore) Insert(ctx context.Context, p *Profile) error {
	if err := s.next.Insert(ctx, p); err != nil {
		return err
	}
	s.set(ctx, p)
	return nil
}

func (s *CachedStore) get(ctx context.Context, email string) (*Profile, bool) {
	data, err := s.client.Get(ctx, cacheKey(email)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.LogWarn(ctx, "profile cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var cp cachedProfile
	if err := cbor.Unmarshal(data, &cp); err != nil {
		logging.LogWarn(ctx, "profile cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &Profile{
		ID:         cp.ID,
		Email:      cp.Email,
		Name:       cp.Name,
		FatherName: cp.FatherName,
		Address:    cp.Address,
		DOB:        cp.DOB,
		Occupation: cp.Occupation,
		Gender:     cp.Gender,
		CreatedAt:  cp.CreatedAt.UTC(),
	}, true
}

func (s *CachedStore) set(ctx context.Context, p *Profile) {
	data, err := cacheEncMode.Marshal(cachedProfile{
		ID:         p.ID,
		Email:      p.Email,
		Name:       p.Name,
		FatherName: p.FatherName,
		Address:    p.Address,
		DOB:        p.DOB,
		Occupation: p.Occupation,
		Gender:     p.Gender,
		CreatedAt:  p.CreatedAt,
	})
	if err != nil {
		logging.LogWarn(ctx, "profile cache encode failed", zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, cacheKey(p.Email), data, s.ttl).Err(); err != nil {
		logging.LogWarn(ctx, "profile cache write failed", zap.Error(err))
	}
}

var _ Store = (*CachedStore)(nil)
