package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-travel-auth/internal/metrics"
	"go-travel-auth/internal/model"
)

type VerificationConfig struct {
	TokenTTL time.Duration
}

// VerificationService manages single-use verification tokens. A token moves
// from created to exactly one of verified, expired or superseded; expiry is
// detected lazily on lookup and physically removed by the cleanup job.
type VerificationService struct {
	tokens  VerificationTokenStore
	users   UserStore
	config  VerificationConfig
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewVerificationService(tokens VerificationTokenStore, users UserStore, cfg VerificationConfig, m *metrics.Metrics) *VerificationService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	return &VerificationService{tokens: tokens, users: users, config: cfg, metrics: m, now: time.Now}
}

// Issue supersedes any outstanding unverified token for (user, purpose) and
// creates a fresh one. At most one active token per pair exists afterwards.
func (s *VerificationService) Issue(ctx context.Context, userID string, purpose string) (model.VerificationToken, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return model.VerificationToken{}, err
	}

	superseded, err := s.tokens.DeleteUnverified(ctx, userID, purpose)
	if err != nil {
		return model.VerificationToken{}, err
	}
	if superseded > 0 {
		slog.Debug("superseded verification tokens", "user_id", userID, "purpose", purpose, "count", superseded)
	}

	now := s.now().UTC()
	t := model.VerificationToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     uuid.NewString(),
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.TokenTTL),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return model.VerificationToken{}, err
	}

	s.metrics.ObserveVerification("issued")
	return t, nil
}

// Verify consumes a token. Unknown, already-used and expired tokens all yield
// ErrInvalidOrExpiredToken; nothing about the token's actual state leaks to
// the caller. On success the owning principal's email is marked verified.
func (s *VerificationService) Verify(ctx context.Context, tokenString string) error {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return model.ErrInvalidOrExpiredToken
	}

	t, err := s.tokens.Consume(ctx, tokenString, s.now().UTC())
	if err != nil {
		s.metrics.ObserveVerification("rejected")
		return err
	}

	if t.Purpose == model.PurposeEmailVerification {
		if err := s.users.MarkEmailVerified(ctx, t.UserID); err != nil {
			return err
		}
	}

	s.metrics.ObserveVerification("verified")
	slog.Info("verification token consumed", "user_id", t.UserID, "purpose", t.Purpose)
	return nil
}

// Resend issues a replacement token unless the principal is already verified
// for the purpose.
func (s *VerificationService) Resend(ctx context.Context, userID string, purpose string) (model.VerificationToken, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.VerificationToken{}, err
	}

	if purpose == model.PurposeEmailVerification && u.EmailVerified {
		return model.VerificationToken{}, model.ErrAlreadyVerified
	}

	return s.Issue(ctx, userID, purpose)
}

// CleanupExpired removes tokens past their expiry. Safe to run repeatedly and
// from several instances at once.
func (s *VerificationService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.CleanExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	s.metrics.ObserveCleanup(deleted)
	if deleted > 0 {
		slog.Info("expired verification tokens removed", "count", deleted)
	}
	return deleted, nil
}

// StartCleanupTicker runs CleanupExpired on a regular interval until ctx is
// cancelled.
func (s *VerificationService) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := s.CleanupExpired(ctx); err != nil {
		slog.Error("verification token cleanup failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpired(ctx); err != nil {
				slog.Error("verification token cleanup failed", "error", err)
			}
		}
	}
}
