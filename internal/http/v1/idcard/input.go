package idcard

// LookupInput for GET /api/idcard. The email is checked by the service
// rather than by schema validation so a missing value yields 400.
type LookupInput struct {
	Email string `query:"email" doc:"Email address of the profile" example:"jane@example.com"`
}

// OnboardInput for POST /api/onboard. The body and its fields are optional
// in the schema; the service reports every blank or over-long field in one
// 400 response.
type OnboardInput struct {
	Body *OnboardRequest
}

// OnboardRequest is the onboarding form.
type OnboardRequest struct {
	Name       string `json:"name"       required:"false" doc:"Full name"                  example:"Jane Doe"`
	FatherName string `json:"fatherName" required:"false" doc:"Father's name"              example:"John Doe"`
	Email      string `json:"email"      required:"false" doc:"Email of the signed-in user" example:"jane@example.com"`
	Address    string `json:"address"    required:"false" doc:"Postal address"             example:"1 Main St, Springfield"`
	DOB        string `json:"dob"        required:"false" doc:"Date of birth (YYYY-MM-DD)" example:"1990-05-17"`
	Occupation string `json:"occupation" required:"false" doc:"Occupation"                 example:"Engineer"`
	Gender     string `json:"gender"     required:"false" doc:"Gender"                     example:"female"`
}
