package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/janisto/idcard-onboarding/internal/platform/logging"
)

// Response is the payload for the health endpoint.
type Response struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// Check verifies one dependency. A nil Func is skipped.
type Check struct {
	Name string
	Func func(ctx context.Context) error
}

const checkTimeout = 2 * time.Second

// Handler reports "healthy" when every check passes, otherwise 503 with the
// names of the failing dependencies.
func Handler(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		resp := Response{Status: "healthy"}
		for _, c := range checks {
			if c.Func == nil {
				continue
			}
			if err := c.Func(ctx); err != nil {
				logging.LogError(r.Context(), "health check failed", err)
				resp.Failed = append(resp.Failed, c.Name)
			}
		}

		status := http.StatusOK
		if len(resp.Failed) > 0 {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
