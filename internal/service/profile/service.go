package profile

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Service errors. Store implementations return ErrNotFound and
// ErrAlreadyExists; every other store failure reaches callers wrapped in
// ErrStoreUnavailable.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("profile not found")
	ErrAlreadyExists    = errors.New("profile already exists")
	ErrStoreUnavailable = errors.New("profile store unavailable")
)

// Field names used in InvalidInputError. They match the JSON keys of the API.
const (
	FieldName       = "name"
	FieldFatherName = "fatherName"
	FieldEmail      = "email"
	FieldAddress    = "address"
	FieldDOB        = "dob"
	FieldOccupation = "occupation"
	FieldGender     = "gender"
)

// Maximum field lengths in characters.
var maxFieldLength = map[string]int{
	FieldName:       200,
	FieldFatherName: 200,
	FieldEmail:      320,
	FieldAddress:    500,
	FieldDOB:        32,
	FieldOccupation: 200,
	FieldGender:     50,
}

// MaxFieldLength returns the length limit of field, or 0 when it has none.
func MaxFieldLength(field string) int {
	return maxFieldLength[field]
}

// InvalidInputError lists every required field that was missing or blank
// in Fields and every field over its length limit in TooLong.
// errors.Is(err, ErrInvalidInput) holds for it.
type InvalidInputError struct {
	Fields  []string
	TooLong []string
}

func (e *InvalidInputError) Error() string {
	var parts []string
	if len(e.Fields) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Fields, ", "))
	}
	if len(e.TooLong) > 0 {
		parts = append(parts, "too long "+strings.Join(e.TooLong, ", "))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// Profile is the onboarding record for one person. At most one exists per
// normalized email and it never changes after creation.
type Profile struct {
	ID         string
	Email      string
	Name       string
	FatherName string
	Address    string
	DOB        string
	Occupation string
	Gender     string
	CreatedAt  time.Time
}

// CreateParams carries the onboarding form.
type CreateParams struct {
	Name       string
	FatherName string
	Email      string
	Address    string
	DOB        string
	Occupation string
	Gender     string
}

// Service looks up and creates profiles.
//
// Emails are normalized with NormalizeEmail on both paths, so lookups are
// case-insensitive.
type Service interface {
	Lookup(ctx context.Context, email string) (*Profile, error)
	Create(ctx context.Context, params CreateParams) (*Profile, error)
}

// Store persists profiles keyed by normalized email.
//
// Find returns ErrNotFound when no profile exists. Insert must enforce
// uniqueness atomically and return ErrAlreadyExists on a conflict; it is the
// final authority when two creates race.
type Store interface {
	Find(ctx context.Context, email string) (*Profile, error)
	Insert(ctx context.Context, p *Profile) error
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalize trims every field and normalizes the email.
func (p CreateParams) normalize() CreateParams {
	return CreateParams{
		Name:       strings.TrimSpace(p.Name),
		FatherName: strings.TrimSpace(p.FatherName),
		Email:      NormalizeEmail(p.Email),
		Address:    strings.TrimSpace(p.Address),
		DOB:        strings.TrimSpace(p.DOB),
		Occupation: strings.TrimSpace(p.Occupation),
		Gender:     strings.TrimSpace(p.Gender),
	}
}

// Validate reports every blank required field and every field over its
// length limit. Call it on normalized params.
func (p CreateParams) Validate() error {
	var missing, tooLong []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{FieldName, p.Name},
		{FieldFatherName, p.FatherName},
		{FieldEmail, p.Email},
		{FieldAddress, p.Address},
		{FieldDOB, p.DOB},
		{FieldOccupation, p.Occupation},
		{FieldGender, p.Gender},
	} {
		switch {
		case strings.TrimSpace(f.value) == "":
			missing = append(missing, f.name)
		case utf8.RuneCountInString(f.value) > maxFieldLength[f.name]:
			tooLong = append(tooLong, f.name)
		}
	}
	if len(missing) > 0 || len(tooLong) > 0 {
		return &InvalidInputError{Fields: missing, TooLong: tooLong}
	}
	return nil
}
