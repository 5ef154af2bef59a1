package profile

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const profilesCollection = "profiles"

// firestoreProfile is the stored document. The document ID is the
// normalized email.
type firestoreProfile struct {
	ID         string    `firestore:"id"`
	Email      string    `firestore:"email"`
	Name       string    `firestore:"name"`
	FatherName string    `firestore:"father_name"`
	Address    string    `firestore:"address"`
	DOB        string    `firestore:"dob"`
	Occupation string    `firestore:"occupation"`
	Gender     string    `firestore:"gender"`
	CreatedAt  time.Time `firestore:"created_at"`
}

// FirestoreStore implements Store on a Firestore collection.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(email string) *firestore.DocumentRef {
	return s.client.Collection(profilesCollection).Doc(NormalizeEmail(email))
}

// Find implements Store.
func (s *FirestoreStore) Find(ctx context.Context, email string) (*Profile, error) {
	snap, err := s.doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fp firestoreProfile
	if err := snap.DataTo(&fp); err != nil {
		return nil, err
	}
	return &Profile{
		ID:         fp.ID,
		Email:      fp.Email,
		Name:       fp.Name,
		FatherName: fp.FatherName,
		Address:    fp.Address,
		DOB:        fp.DOB,
		Occupation: fp.Occupation,
		Gender:     fp.Gender,
		CreatedAt:  fp.CreatedAt.UTC(),
	}, nil
}

// Insert implements Store. DocumentRef.Create fails with AlreadyExists when
// the document is present, which makes the email unique without a
// transaction.
func (s *FirestoreStore) Insert(ctx context.Context, p *Profile) error {
	_, err := s.doc(p.Email).Create(ctx, firestoreProfile{
		ID:         p.ID,
		Email:      NormalizeEmail(p.Email),
		Name:       p.Name,
		FatherName: p.FatherName,
		Address:    p.Address,
		DOB:        p.DOB,
		Occupation: p.Occupation,
		Gender:     p.Gender,
		CreatedAt:  p.CreatedAt.UTC(),
	})
	if status.Code(err) == codes.AlreadyExists {
		return ErrAlreadyExists
	}
	return err
}

var _ Store = (*FirestoreStore)(nil)
