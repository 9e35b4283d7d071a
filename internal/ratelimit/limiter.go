// Package ratelimit gates sensitive endpoints with a fixed-window counter
// shared across server instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go-travel-auth/internal/counter"
)

// Category groups endpoints that share a per-client budget.
type Category string

const (
	// CategoryStandard covers routine auth operations: login, refresh.
	CategoryStandard Category = "standard"
	// CategorySensitive covers abuse-prone operations: registration,
	// verification resend, password reset.
	CategorySensitive Category = "sensitive"
)

type Config struct {
	Window         time.Duration
	StandardLimit  int
	SensitiveLimit int
	// FailOpen decides what happens when the counter store is unreachable:
	// true lets the request through, false rejects it. There is no implicit
	// default; config validation forces the choice.
	FailOpen bool
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type Limiter struct {
	counter counter.Counter
	config  Config
	now     func() time.Time
}

func NewLimiter(c counter.Counter, cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.StandardLimit <= 0 {
		cfg.StandardLimit = 5
	}
	if cfg.SensitiveLimit <= 0 {
		cfg.SensitiveLimit = 3
	}

	return &Limiter{counter: c, config: cfg, now: time.Now}
}

// Check atomically counts the request against the (clientKey, category)
// window and reports whether it may proceed. When the counter store fails,
// the returned error is non-nil and Allowed reflects the configured
// fail-open/fail-closed policy; callers must log the error either way.
func (l *Limiter) Check(ctx context.Context, clientKey string, category Category) (Result, error) {
	limit := l.limitFor(category)
	key := clientKey + ":" + string(category)

	count, ttl, err := l.counter.IncrementWithTTL(ctx, key, l.config.Window)
	if err != nil {
		res := Result{
			Allowed:   l.config.FailOpen,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   l.now().Add(l.config.Window),
		}
		if !res.Allowed {
			res.RetryAfter = l.config.Window
		}
		return res, fmt.Errorf("rate limit check %q: %w", key, err)
	}

	resetAt := l.now().Add(ttl)
	if count > int64(limit) {
		return Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: ttl,
		}, nil
	}

	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - int(count),
		ResetAt:   resetAt,
	}, nil
}

func (l *Limiter) limitFor(category Category) int {
	if category == CategorySensitive {
		return l.config.SensitiveLimit
	}
	return l.config.StandardLimit
}
