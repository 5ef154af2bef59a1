package onboarding

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// MemoryCache is a Cache held in process memory.
type MemoryCache struct {
	mu      sync.Mutex
	profile *Profile
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Load returns the cached profile for email, or nil when none matches.
func (c *MemoryCache) Load(email string) (*Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile == nil || c.profile.Email != normalizeEmail(email) {
		return nil, nil
	}
	cp := *c.profile
	return &cp, nil
}

// Save replaces the cached profile.
func (c *MemoryCache) Save(p *Profile) error {
	if p == nil {
		return errors.New("saving nil profile")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *p
	cp.Email = normalizeEmail(cp.Email)
	c.profile = &cp
	return nil
}

// Clear drops the cached profile.
func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profile = nil
	return nil
}

// cachedProfile is the on-disk CBOR layout.
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
	SavedAt    time.Time `cbor:"10,keyasint"`
}

var fileEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// FileCache stores the profile as a CBOR file, one profile at a time.
type FileCache struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileCache creates a cache backed by the file at path. The parent
// directory is created on the first Save.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path, now: time.Now}
}

// Path returns the cache file location.
func (c *FileCache) Path() string {
	return c.path
}

// Load returns the cached profile for email, or nil when the file holds no
// usable entry for it.
func (c *FileCache) Load(email string) (*Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile cache: %w", err)
	}

	var cp cachedProfile
	if err := cbor.Unmarshal(data, &cp); err != nil {
		// Corrupt cache entries are discarded; the API is the source of truth.
		return nil, nil
	}
	if cp.Email != normalizeEmail(email) {
		return nil, nil
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
		CreatedAt:  cp.CreatedAt,
	}, nil
}

// Save writes the profile atomically through a temp file and rename.
func (c *FileCache) Save(p *Profile) error {
	if p == nil {
		return errors.New("saving nil profile")
	}
	data, err := fileEncMode.Marshal(cachedProfile{
		ID:         p.ID,
		Email:      normalizeEmail(p.Email),
		Name:       p.Name,
		FatherName: p.FatherName,
		Address:    p.Address,
		DOB:        p.DOB,
		Occupation: p.Occupation,
		Gender:     p.Gender,
		CreatedAt:  p.CreatedAt.UTC(),
		SavedAt:    c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding profile cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".profile-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// Clear removes the cache file. Clearing an absent cache is not an error.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing profile cache: %w", err)
	}
	return nil
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*FileCache)(nil)
)
