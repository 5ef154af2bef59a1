package idcard

import (
	"github.com/janisto/idcard-onboarding/internal/platform/timeutil"
)

// Profile is the ID card data returned by both operations.
type Profile struct {
	ID         string        `json:"id"         doc:"Unique identifier"          example:"6f1c2a8e-3b0d-4c55-9d3e-0c7b9a1e2f44"`
	Email      string        `json:"email"      doc:"Normalized email address"   example:"jane@example.com"`
	Name       string        `json:"name"       doc:"Full name"                  example:"Jane Doe"`
	FatherName string        `json:"fatherName" doc:"Father's name"              example:"John Doe"`
	Address    string        `json:"address"    doc:"Postal address"             example:"1 Main St, Springfield"`
	DOB        string        `json:"dob"        doc:"Date of birth (YYYY-MM-DD)" example:"1990-05-17"`
	Occupation string        `json:"occupation" doc:"Occupation"                 example:"Engineer"`
	Gender     string        `json:"gender"     doc:"Gender"                     example:"female"`
	CreatedAt  timeutil.Time `json:"createdAt"  doc:"Onboarding timestamp"       example:"2024-01-15T10:30:00.000Z"`
}
