package idcard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/idcard-onboarding/internal/platform/auth"
	"github.com/janisto/idcard-onboarding/internal/platform/logging"
	"github.com/janisto/idcard-onboarding/internal/platform/timeutil"
	profilesvc "github.com/janisto/idcard-onboarding/internal/service/profile"
)

const (
	LookupPath  = "/api/idcard"
	OnboardPath = "/api/onboard"
)

var bearerAuth = []map[string][]string{{auth.SecurityScheme: {}}}

// Register registers the ID card operations.
func Register(api huma.API, svc profilesvc.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-idcard",
		Method:      http.MethodGet,
		Path:        LookupPath,
		Summary:     "Get ID card",
		Description: "Returns the onboarding profile for the given email. " +
			"The email must belong to the signed-in user.",
		Tags:     []string{"ID Card"},
		Security: bearerAuth,
		Errors:   []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *LookupInput) (*LookupOutput, error) {
		email := profilesvc.NormalizeEmail(input.Email)
		if email != "" {
			if err := authorize(ctx, email); err != nil {
				return nil, err
			}
		}

		p, err := svc.Lookup(ctx, email)
		if err != nil {
			return nil, mapServiceError(ctx, err, "query")
		}
		return &LookupOutput{Body: toHTTPProfile(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "onboard",
		Method:        http.MethodPost,
		Path:          OnboardPath,
		Summary:       "Submit onboarding form",
		Description:   "Creates the ID card profile for the signed-in user. Each email can onboard once.",
		Tags:          []string{"ID Card"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerAuth,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *OnboardInput) (*OnboardOutput, error) {
		var body OnboardRequest
		if input.Body != nil {
			body = *input.Body
		}
		email := profilesvc.NormalizeEmail(body.Email)
		if email != "" {
			if err := authorize(ctx, email); err != nil {
				return nil, err
			}
		}

		p, err := svc.Create(ctx, profilesvc.CreateParams{
			Name:       body.Name,
			FatherName: body.FatherName,
			Email:      email,
			Address:    body.Address,
			DOB:        body.DOB,
			Occupation: body.Occupation,
			Gender:     body.Gender,
		})
		if err != nil {
			return nil, mapServiceError(ctx, err, "body")
		}
		return &OnboardOutput{
			Location: LookupPath + "?email=" + url.QueryEscape(p.Email),
			Body:     toHTTPProfile(p),
		}, nil
	})
}

// authorize allows callers to read and create only their own profile.
func authorize(ctx context.Context, email string) error {
	err := auth.AuthorizeEmail(auth.IdentityFromContext(ctx), email)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrEmailUnverified):
		logging.LogWarn(ctx, "access denied", zap.String("reason", "email_unverified"))
		return huma.Error403Forbidden("email address is not verified")
	case errors.Is(err, auth.ErrEmailMismatch):
		logging.LogWarn(ctx, "access denied", zap.String("reason", "email_mismatch"))
		return huma.Error403Forbidden("email does not match the signed-in user")
	default:
		return huma.Error401Unauthorized("authentication required")
	}
}

// mapServiceError converts service errors to problem responses. location is
// the input source ("query" or "body") used for field level details.
func mapServiceError(ctx context.Context, err error, location string) error {
	var invalid *profilesvc.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		details := make([]error, 0, len(invalid.Fields)+len(invalid.TooLong))
		for _, f := range invalid.Fields {
			details = append(details, &huma.ErrorDetail{
				Message:  "required field is missing or blank",
				Location: location + "." + f,
			})
		}
		for _, f := range invalid.TooLong {
			details = append(details, &huma.ErrorDetail{
				Message:  fmt.Sprintf("must be at most %d characters", profilesvc.MaxFieldLength(f)),
				Location: location + "." + f,
			})
		}
		detail := "missing required fields"
		if len(invalid.Fields) == 0 {
			detail = "invalid field values"
		}
		return huma.Error400BadRequest(detail, details...)
	case errors.Is(err, profilesvc.ErrNotFound):
		return huma.Error404NotFound("profile not found")
	case errors.Is(err, profilesvc.ErrAlreadyExists):
		return huma.Error400BadRequest("profile already onboarded")
	default:
		logging.LogError(ctx, "profile service failure", err)
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPProfile(p *profilesvc.Profile) Profile {
	return Profile{
		ID:         p.ID,
		Email:      p.Email,
		Name:       p.Name,
		FatherName: p.FatherName,
		Address:    p.Address,
		DOB:        p.DOB,
		Occupation: p.Occupation,
		Gender:     p.Gender,
		CreatedAt:  timeutil.NewTime(p.CreatedAt),
	}
}
