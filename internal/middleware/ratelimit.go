package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go-travel-auth/internal/metrics"
	"go-travel-auth/internal/model"
	"go-travel-auth/internal/ratelimit"
)

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
}

func NewRateLimitMiddleware(limiter *ratelimit.Limiter, m *metrics.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, metrics: m}
}

// Limit gates a route group with the given category's per-client budget.
// Every checked response carries the X-RateLimit headers; rejections add
// Retry-After.
func (m *RateLimitMiddleware) Limit(category ratelimit.Category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := extractClientIP(r)

			res, err := m.limiter.Check(r.Context(), clientKey, category)
			if err != nil {
				// The limiter already applied the fail-open/fail-closed
				// policy; the outage itself still has to be visible.
				slog.Error("rate limit counter store unavailable",
					"category", category, "fail_open", res.Allowed, "error", err)
				m.metrics.ObserveRateLimit(string(category), "error")
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				m.metrics.ObserveRateLimit(string(category), "rejected")
				retryAfter := int(res.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(model.APIResponse{
					Success: false,
					Error: &model.APIError{
						Code:    "RATE_LIMITED",
						Message: "Too many requests",
					},
				})
				return
			}

			m.metrics.ObserveRateLimit(string(category), "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func extractClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
