package profile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/janisto/idcard-onboarding/internal/testutil"
)

func setupFirestoreTest(t *testing.T) *FirestoreStore {
	t.Helper()
	return NewFirestoreStore(testutil.NewFirestoreClient(t))
}

func TestFirestoreInsertAndFind(t *testing.T) {
	store := setupFirestoreTest(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 123000000, time.UTC)

	err := store.Insert(t.Context(), &Profile{
		ID:         "p-1",
		Email:      "Jane@Example.com",
		Name:       "Jane Doe",
		FatherName: "John Doe",
		Address:    "1 Main St",
		DOB:        "1990-05-17",
		Occupation: "Engineer",
		Gender:     "female",
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	p, err := store.Find(t.Context(), "  JANE@example.com ")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.ID != "p-1" || p.Email != "jane@example.com" || p.FatherName != "John Doe" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if !p.CreatedAt.Equal(created) || p.CreatedAt.Location() != time.UTC {
		t.Fatalf("CreatedAt = %v, want %v", p.CreatedAt, created)
	}
}

func TestFirestoreFindNotFound(t *testing.T) {
	store := setupFirestoreTest(t)
	if _, err := store.Find(t.Context(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFirestoreInsertDuplicate(t *testing.T) {
	store := setupFirestoreTest(t)
	p := &Profile{ID: "p-1", Email: "jane@example.com", CreatedAt: time.Now()}
	if err := store.Insert(t.Context(), p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	dup := &Profile{ID: "p-2", Email: "JANE@EXAMPLE.COM", CreatedAt: time.Now()}
	if err := store.Insert(t.Context(), dup); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestFirestoreConcurrentCreate(t *testing.T) {
	store := setupFirestoreTest(t)
	m := NewManager(store)

	const n = 10
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for range n {
		wg.Go(func() {
			_, err := m.Create(context.Background(), validParams())
			switch {
			case err == nil:
				successes.Add(1)
			case !errors.Is(err, ErrAlreadyExists):
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Fatalf("expected exactly one successful create, got %d", successes.Load())
	}
}

func TestFirestoreCancelledContext(t *testing.T) {
	store := setupFirestoreTest(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := store.Find(ctx, "jane@example.com")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a transport error, got %v", err)
	}
}
