package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-travel-auth/internal/model"
)

type VerificationTokenRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationTokenRepository(pool *pgxpool.Pool) *VerificationTokenRepository {
	return &VerificationTokenRepository{pool: pool}
}

func (r *VerificationTokenRepository) Create(ctx context.Context, t model.VerificationToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO verification_tokens (id, user_id, token, purpose, created_at, expires_at, verified, attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.Token, t.Purpose, t.CreatedAt, t.ExpiresAt, t.Verified, t.Attempts)
	if err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}
	return nil
}

// DeleteUnverified supersedes any outstanding token for (user, purpose).
// Deleting zero rows is fine; issuance always follows.
func (r *VerificationTokenRepository) DeleteUnverified(ctx context.Context, userID string, purpose string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM verification_tokens
		 WHERE user_id = $1 AND purpose = $2 AND verified = false`,
		userID, purpose)
	if err != nil {
		return 0, fmt.Errorf("delete unverified tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Consume flips a still-valid token to verified in one statement, so two
// concurrent verify calls cannot both succeed. No matching row means the
// token never existed, was already used, or expired; the caller collapses
// those into one outcome.
func (r *VerificationTokenRepository) Consume(ctx context.Context, tokenString string, now time.Time) (model.VerificationToken, error) {
	var t model.VerificationToken
	err := r.pool.QueryRow(ctx,
		`UPDATE verification_tokens
		 SET verified = true, verified_at = $2, attempts = attempts + 1
		 WHERE token = $1 AND verified = false AND expires_at > $2
		 RETURNING id, user_id, token, purpose, created_at, expires_at, verified, verified_at, attempts`,
		tokenString, now).
		Scan(&t.ID, &t.UserID, &t.Token, &t.Purpose, &t.CreatedAt, &t.ExpiresAt,
			&t.Verified, &t.VerifiedAt, &t.Attempts)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.VerificationToken{}, model.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return model.VerificationToken{}, fmt.Errorf("consume verification token: %w", err)
	}
	return t, nil
}

// CleanExpired removes tokens past their expiry. Idempotent: deleting rows
// that another instance already removed affects nothing.
func (r *VerificationTokenRepository) CleanExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM verification_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("clean expired verification tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
