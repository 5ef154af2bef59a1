package auth

import (
	"errors"
	"testing"

	"github.com/janisto/idcard-onboarding/internal/platform/firebase"
	"github.com/janisto/idcard-onboarding/internal/testutil"
)

func newEmulatorVerifier(t *testing.T) *FirebaseVerifier {
	t.Helper()
	testutil.SkipIfAuthEmulatorUnavailable(t)
	testutil.SetupEmulator(t)
	testutil.ClearAccounts(t)

	clients, err := firebase.InitializeClients(t.Context(), firebase.Config{ProjectID: testutil.ProjectID})
	if err != nil {
		t.Fatalf("init firebase: %v", err)
	}
	return NewFirebaseVerifier(clients.Auth)
}

func TestFirebaseVerifierWithEmulator(t *testing.T) {
	verifier := newEmulatorVerifier(t)
	user := testutil.CreateTestUser(t, "jane@example.com", "secret-password")

	id, err := verifier.Verify(t.Context(), user.IDToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UID != user.LocalID || id.Email != "jane@example.com" {
		t.Fatalf("unexpected identity %+v", id)
	}
	// Password sign-up does not verify the address; Google sign-in does.
	if id.EmailVerified {
		t.Fatal("expected unverified email for password sign-up")
	}
	if err := AuthorizeEmail(id, "jane@example.com"); !errors.Is(err, ErrEmailUnverified) {
		t.Fatalf("expected ErrEmailUnverified, got %v", err)
	}
}

func TestFirebaseVerifierRejectsGarbage(t *testing.T) {
	verifier := newEmulatorVerifier(t)

	if _, err := verifier.Verify(t.Context(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestClassifyFirebaseErrorDefaultsToInvalid(t *testing.T) {
	if err := classifyFirebaseError(errors.New("opaque")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

