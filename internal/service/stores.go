package service

import (
	"context"
	"time"

	"go-travel-auth/internal/model"
)

// UserStore is the slice of the principal repository the security core needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	IncrementFailedAttempts(ctx context.Context, userID string) (int, error)
	LockAccount(ctx context.Context, userID string, until *time.Time, reason string) error
	ResetFailedAttempts(ctx context.Context, userID string) error
	MarkEmailVerified(ctx context.Context, userID string) error
}

// VerificationTokenStore persists single-use verification tokens.
type VerificationTokenStore interface {
	Create(ctx context.Context, t model.VerificationToken) error
	DeleteUnverified(ctx context.Context, userID string, purpose string) (int64, error)
	Consume(ctx context.Context, tokenString string, now time.Time) (model.VerificationToken, error)
	CleanExpired(ctx context.Context, now time.Time) (int64, error)
}
