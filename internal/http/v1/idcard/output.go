package idcard

// LookupOutput for GET /api/idcard.
type LookupOutput struct {
	Body Profile
}

// OnboardOutput for POST /api/onboard (201 Created).
type OnboardOutput struct {
	Location string `header:"Location" doc:"URL of the created ID card"`
	Body     Profile
}
