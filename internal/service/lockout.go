package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-travel-auth/internal/metrics"
	"go-travel-auth/internal/model"
)

type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// LockoutPolicy tracks failed authentication attempts per user and
// temporarily locks accounts that cross the threshold. Counters live in the
// database so concurrent failures across instances never lose updates.
type LockoutPolicy struct {
	users   UserStore
	config  LockoutConfig
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLockoutPolicy(users UserStore, cfg LockoutConfig, m *metrics.Metrics) *LockoutPolicy {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 15 * time.Minute
	}

	return &LockoutPolicy{users: users, config: cfg, metrics: m, now: time.Now}
}

// RecordFailedAttempt bumps the failure counter and locks the account once
// the threshold is reached. The counter keeps accumulating while the lock is
// in effect; only a successful authentication or an explicit unlock resets it,
// so a repeat failure right after a lock expires re-locks immediately.
func (p *LockoutPolicy) RecordFailedAttempt(ctx context.Context, userID string) error {
	count, err := p.users.IncrementFailedAttempts(ctx, userID)
	if err != nil {
		return err
	}

	if count < p.config.Threshold {
		return nil
	}

	until := p.now().UTC().Add(p.config.Duration)
	reason := fmt.Sprintf("%d consecutive failed login attempts", count)
	if err := p.users.LockAccount(ctx, userID, &until, reason); err != nil {
		return err
	}

	p.metrics.ObserveLockout()
	slog.Warn("account locked", "user_id", userID, "failed_attempts", count, "locked_until", until)
	return nil
}

func (p *LockoutPolicy) RecordSuccessfulAuth(ctx context.Context, userID string) error {
	return p.users.ResetFailedAttempts(ctx, userID)
}

// IsLocked reports whether the user may not authenticate right now, and the
// unlock time when one is known. Indefinite administrative locks return a
// zero time.
func (p *LockoutPolicy) IsLocked(ctx context.Context, userID string) (bool, time.Time, error) {
	u, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return false, time.Time{}, err
	}

	locked, until := p.Evaluate(u)
	return locked, until, nil
}

// Evaluate applies the lock rules to an already-loaded principal.
func (p *LockoutPolicy) Evaluate(u model.User) (bool, time.Time) {
	if u.LockedUntil != nil {
		if u.LockedUntil.After(p.now()) {
			return true, u.LockedUntil.UTC()
		}
		return false, time.Time{}
	}

	// Administrative lock without an expiry.
	if u.Status == model.StatusLocked {
		return true, time.Time{}
	}

	return false, time.Time{}
}

// Lock is the administrative override: immediate and independent of the
// failure counter, cleared only by Unlock.
func (p *LockoutPolicy) Lock(ctx context.Context, userID string, reason string) error {
	if reason == "" {
		reason = "locked by administrator"
	}
	if err := p.users.LockAccount(ctx, userID, nil, reason); err != nil {
		return err
	}

	slog.Info("account locked by administrator", "user_id", userID, "reason", reason)
	return nil
}

func (p *LockoutPolicy) Unlock(ctx context.Context, userID string) error {
	if err := p.users.ResetFailedAttempts(ctx, userID); err != nil {
		return err
	}

	slog.Info("account unlocked", "user_id", userID)
	return nil
}
