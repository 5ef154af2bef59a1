// Package onboarding is the client side of the ID card flow. A Machine tracks
// whether the signed-in user still has to fill the onboarding form or already
// has a card, backed by the REST API and a best-effort local cache.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Client errors
var (
	ErrNotFound          = errors.New("profile not found")
	ErrAlreadyExists     = errors.New("profile already onboarded")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("not signed in")
	ErrForbidden         = errors.New("access denied")
	ErrUnavailable       = errors.New("profile service unavailable")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNoIdentity        = errors.New("identity has no email")
)

// Form field names, matching the JSON keys of the onboarding request.
const (
	FieldName       = "name"
	FieldFatherName = "fatherName"
	FieldEmail      = "email"
	FieldAddress    = "address"
	FieldDOB        = "dob"
	FieldOccupation = "occupation"
	FieldGender     = "gender"
)

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	Email string
	Token string
}

// NormalizedEmail returns the trimmed lower-case email.
func (i Identity) NormalizedEmail() string {
	return normalizeEmail(i.Email)
}

// Profile is the ID card as returned by the API.
type Profile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	FatherName string    `json:"fatherName"`
	Address    string    `json:"address"`
	DOB        string    `json:"dob"`
	Occupation string    `json:"occupation"`
	Gender     string    `json:"gender"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Form is the onboarding form. Email is always taken from the identity.
type Form struct {
	Name       string `json:"name"`
	FatherName string `json:"fatherName"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	DOB        string `json:"dob"`
	Occupation string `json:"occupation"`
	Gender     string `json:"gender"`
}

// Missing returns the names of blank fields in form order.
func (f Form) Missing() []string {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{FieldName, f.Name},
		{FieldFatherName, f.FatherName},
		{FieldEmail, f.Email},
		{FieldAddress, f.Address},
		{FieldDOB, f.DOB},
		{FieldOccupation, f.Occupation},
		{FieldGender, f.Gender},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// InvalidInputError lists fields rejected locally or by the API, either
// blank or over their length limit.
type InvalidInputError struct {
	Fields []string
}

func (e *InvalidInputError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(e.Fields, ", "))
}

// Unwrap enables errors.Is against ErrInvalidInput.
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// ProfileAPI is the remote profile service.
type ProfileAPI interface {
	Lookup(ctx context.Context, id Identity) (*Profile, error)
	Create(ctx context.Context, id Identity, form Form) (*Profile, error)
}

// Cache keeps the last resolved profile so a restart can show the card
// without asking the API. It is display data only, never an authority.
type Cache interface {
	Load(email string) (*Profile, error)
	Save(p *Profile) error
	Clear() error
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
