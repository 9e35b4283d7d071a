package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-travel-auth/internal/counter"
	"go-travel-auth/internal/ratelimit"
)

type brokenCounter struct{}

func (brokenCounter) IncrementWithTTL(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("store unreachable")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func limitedHandler(t *testing.T, cfg ratelimit.Config, category ratelimit.Category) http.Handler {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.NewLimiter(counter.NewRedisCounter(client, "rl:"), cfg)
	return NewRateLimitMiddleware(limiter, nil).Limit(category)(okHandler())
}

func TestRateLimit_HeadersOnEveryRequest(t *testing.T) {
	handler := limitedHandler(t, ratelimit.Config{Window: time.Minute, SensitiveLimit: 3}, ratelimit.CategorySensitive)

	req := httptest.NewRequest("POST", "/api/v1/auth/register", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	handler := limitedHandler(t, ratelimit.Config{Window: time.Minute, SensitiveLimit: 3}, ratelimit.CategorySensitive)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/v1/auth/register", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest("POST", "/api/v1/auth/register", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimit_ClientsSeparatedByForwardedFor(t *testing.T) {
	handler := limitedHandler(t, ratelimit.Config{Window: time.Minute, SensitiveLimit: 1}, ratelimit.CategorySensitive)

	first := httptest.NewRequest("POST", "/", nil)
	first.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest("POST", "/", nil)
	second.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest("POST", "/", nil)
	other.Header.Set("X-Forwarded-For", "203.0.113.99")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_FailOpenServes(t *testing.T) {
	limiter := ratelimit.NewLimiter(brokenCounter{}, ratelimit.Config{Window: time.Minute, FailOpen: true})
	handler := NewRateLimitMiddleware(limiter, nil).Limit(ratelimit.CategoryStandard)(okHandler())

	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_FailClosedRejects(t *testing.T) {
	limiter := ratelimit.NewLimiter(brokenCounter{}, ratelimit.Config{Window: time.Minute, FailOpen: false})
	handler := NewRateLimitMiddleware(limiter, nil).Limit(ratelimit.CategoryStandard)(okHandler())

	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
