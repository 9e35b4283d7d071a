package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-travel-auth/internal/model"
)

func activeUser(id string) model.User {
	return model.User{
		ID:       id,
		Username: "marco",
		Email:    "marco@example.com",
		Status:   model.StatusActive,
	}
}

func TestLockoutPolicy_ThresholdLocks(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore(activeUser("u1"))
	policy := NewLockoutPolicy(users, LockoutConfig{Threshold: 5, Duration: 15 * time.Minute}, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy.now = func() time.Time { return base }

	for i := 0; i < 4; i++ {
		require.NoError(t, policy.RecordFailedAttempt(ctx, "u1"))

		locked, _, err := policy.IsLocked(ctx, "u1")
		require.NoError(t, err)
		require.False(t, locked, "attempt %d must not lock yet", i+1)
	}

	require.NoError(t, policy.RecordFailedAttempt(ctx, "u1"))

	locked, until, err := policy.IsLocked(ctx, "u1")
	require.NoError(t, err)
	require.True(t, locked)
	require.Equal(t, base.Add(15*time.Minute), until)

	// The lock lifts once the duration elapses.
	policy.now = func() time.Time { return base.Add(15*time.Minute + time.Second) }
	locked, _, err = policy.IsLocked(ctx, "u1")
	require.NoError(t, err)
	require.False(t, locked)

	// The counter kept accumulating, so one more failure re-locks.
	require.NoError(t, policy.RecordFailedAttempt(ctx, "u1"))
	locked, _, err = policy.IsLocked(ctx, "u1")
	require.NoError(t, err)
	require.True(t, locked)
}

func TestLockoutPolicy_SuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore(activeUser("u1"))
	policy := NewLockoutPolicy(users, LockoutConfig{Threshold: 5, Duration: 15 * time.Minute}, nil)

	for i := 0; i < 4; i++ {
		require.NoError(t, policy.RecordFailedAttempt(ctx, "u1"))
	}
	require.Equal(t, 4, users.get("u1").FailedLoginAttempts)

	require.NoError(t, policy.RecordSuccessfulAuth(ctx, "u1"))
	require.Equal(t, 0, users.get("u1").FailedLoginAttempts)

	// A full threshold of fresh failures is needed again.
	for i := 0; i < 4; i++ {
		require.NoError(t, policy.RecordFailedAttempt(ctx, "u1"))
	}
	locked, _, err := policy.IsLocked(ctx, "u1")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestLockoutPolicy_AdminOverride(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore(activeUser("u1"))
	policy := NewLockoutPolicy(users, LockoutConfig{}, nil)

	require.NoError(t, policy.Lock(ctx, "u1", "fraud review"))

	locked, until, err := policy.IsLocked(ctx, "u1")
	require.NoError(t, err)
	require.True(t, locked)
	require.True(t, until.IsZero(), "administrative locks have no expiry")
	require.Equal(t, "fraud review", users.get("u1").LockReason)

	require.NoError(t, policy.Unlock(ctx, "u1"))

	locked, _, err = policy.IsLocked(ctx, "u1")
	require.NoError(t, err)
	require.False(t, locked)
	require.Equal(t, model.StatusActive, users.get("u1").Status)
}

func TestLockoutPolicy_UnknownUser(t *testing.T) {
	ctx := context.Background()
	policy := NewLockoutPolicy(newFakeUserStore(), LockoutConfig{}, nil)

	err := policy.RecordFailedAttempt(ctx, "ghost")
	require.ErrorIs(t, err, model.ErrUserNotFound)

	_, _, err = policy.IsLocked(ctx, "ghost")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}
