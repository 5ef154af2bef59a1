package auth

import (
	"context"
	"errors"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// Identity is the verified identity behind an ID token. It is passed
// explicitly through the request context; there is no ambient session.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
}

var (
	ErrNoToken      = errors.New("missing authorization header")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrUserDisabled = errors.New("user disabled")

	// ErrCertificateFetch means Google's signing keys could not be fetched.
	// Clients get 503 and may retry.
	ErrCertificateFetch = errors.New("failed to fetch certificates")

	// ErrEmailUnverified is returned by AuthorizeEmail when the identity
	// provider has not verified the token's email address.
	ErrEmailUnverified = errors.New("email not verified")

	// ErrEmailMismatch is returned by AuthorizeEmail when a caller asks for
	// a profile that does not belong to them.
	ErrEmailMismatch = errors.New("email does not match identity")
)

// Verifier validates an ID token and returns the identity it carries.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// FirebaseVerifier verifies Firebase Authentication ID tokens (Google
// sign-in) with the Admin SDK, including the revocation check.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier wraps an Admin SDK auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, classifyFirebaseError(err)
	}

	email, _ := token.Claims["email"].(string)
	verified, _ := token.Claims["email_verified"].(bool)
	return &Identity{
		UID:           token.UID,
		Email:         email,
		EmailVerified: verified,
	}, nil
}

func classifyFirebaseError(err error) error {
	switch {
	case fbauth.IsCertificateFetchFailed(err):
		return ErrCertificateFetch
	case fbauth.IsIDTokenExpired(err):
		return ErrTokenExpired
	case fbauth.IsIDTokenRevoked(err):
		return ErrTokenRevoked
	case fbauth.IsUserDisabled(err):
		return ErrUserDisabled
	default:
		return ErrInvalidToken
	}
}

// ExtractBearerToken returns the token from an Authorization header value.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// AuthorizeEmail checks that id may read or create the profile for email.
// Both addresses are compared trimmed and case-insensitively.
func AuthorizeEmail(id *Identity, email string) error {
	if id == nil {
		return ErrNoToken
	}
	if !id.EmailVerified || strings.TrimSpace(id.Email) == "" {
		return ErrEmailUnverified
	}
	if !strings.EqualFold(strings.TrimSpace(id.Email), strings.TrimSpace(email)) {
		return ErrEmailMismatch
	}
	return nil
}

var _ Verifier = (*FirebaseVerifier)(nil)
