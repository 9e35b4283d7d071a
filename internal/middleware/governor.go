package middleware

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	"go-travel-auth/internal/model"
)

// Governor is a server-wide throughput cap in front of the distributed
// per-client limiter. It protects this instance (and its Redis round trips)
// from aggregate overload; per-client fairness is the distributed limiter's
// job.
func Governor(rps int, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = rps
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(model.APIResponse{
					Success: false,
					Error: &model.APIError{
						Code:    "RATE_LIMITED",
						Message: "Server is overloaded, try again shortly",
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
