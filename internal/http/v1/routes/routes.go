package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/idcard-onboarding/internal/http/v1/idcard"
	"github.com/janisto/idcard-onboarding/internal/platform/auth"
	profilesvc "github.com/janisto/idcard-onboarding/internal/service/profile"
)

// Register wires all API operations into api. Operations that declare the
// bearerAuth security requirement are guarded by the Firebase verifier.
func Register(api huma.API, verifier auth.Verifier, profiles profilesvc.Service) {
	oapi := api.OpenAPI()
	if oapi.Components.SecuritySchemes == nil {
		oapi.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oapi.Components.SecuritySchemes[auth.SecurityScheme] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
		Description:  "Firebase Authentication ID token",
	}

	api.UseMiddleware(auth.NewAuthMiddleware(api, verifier))

	idcard.Register(api, profiles)
}
