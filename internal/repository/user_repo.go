package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-travel-auth/internal/model"
)

const userColumns = `id, username, email, password_hash, roles, status, email_verified,
	failed_login_attempts, locked_until, lock_reason, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByIdentifier resolves a login identifier that may be a username or an
// email address.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE lower(username) = lower($1) OR lower(email) = lower($1)`, identifier))
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users
		 WHERE lower(username) = lower($1) OR lower(email) = lower($2))`,
		strings.TrimSpace(username), strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, roles, status, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Roles, u.Status, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// IncrementFailedAttempts bumps the failure counter in a single statement and
// returns the new count. The increment runs in the database so concurrent
// failed logins never lose updates.
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1, updated_at = $2
		 WHERE id = $1
		 RETURNING failed_login_attempts`,
		userID, time.Now().UTC()).Scan(&count)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment failed attempts: %w", err)
	}
	return count, nil
}

// LockAccount marks the user locked. A nil until means an indefinite
// administrative lock that only an explicit unlock clears.
func (r *UserRepository) LockAccount(ctx context.Context, userID string, until *time.Time, reason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET locked_until = $2, lock_reason = $3, status = $4, updated_at = $5 WHERE id = $1`,
		userID, until, reason, model.StatusLocked, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ResetFailedAttempts(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET failed_login_attempts = 0, locked_until = NULL, lock_reason = '',
		     status = CASE WHEN status = $2 THEN $3 ELSE status END,
		     updated_at = $4
		 WHERE id = $1`,
		userID, model.StatusLocked, model.StatusActive, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset failed attempts: %w", err)
	}
	return nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET email_verified = true,
		     status = CASE WHEN status = $2 THEN $3 ELSE status END,
		     updated_at = $4
		 WHERE id = $1`,
		userID, model.StatusPendingVerification, model.StatusActive, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Roles, &u.Status,
		&u.EmailVerified, &u.FailedLoginAttempts, &u.LockedUntil, &u.LockReason,
		&u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
