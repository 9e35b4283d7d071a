package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-travel-auth/internal/metrics"
	"go-travel-auth/internal/model"
	"go-travel-auth/internal/token"
	"go-travel-auth/pkg/apierror"
)

const defaultRole = "traveler"

// AuthService orchestrates the login path: lockout check, credential
// verification, failure bookkeeping and token minting. The token, ratelimit
// and lockout packages underneath never see passwords.
type AuthService struct {
	users        UserStore
	tokens       *token.Manager
	lockout      *LockoutPolicy
	verification *VerificationService
	metrics      *metrics.Metrics
}

func NewAuthService(users UserStore, tokens *token.Manager, lockout *LockoutPolicy, verification *VerificationService, m *metrics.Metrics) *AuthService {
	return &AuthService{
		users:        users,
		tokens:       tokens,
		lockout:      lockout,
		verification: verification,
		metrics:      m,
	}
}

// Login verifies credentials for a username or email and mints an
// access/refresh pair. Unknown users and wrong passwords produce the same
// generic failure.
func (s *AuthService) Login(ctx context.Context, identifier string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		s.metrics.ObserveLogin("invalid_credentials")
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	if locked, until := s.lockout.Evaluate(user); locked {
		s.metrics.ObserveLogin("locked")
		return model.TokenPair{}, lockedError(until)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if recordErr := s.lockout.RecordFailedAttempt(ctx, user.ID); recordErr != nil {
			slog.Error("failed to record login failure", "user_id", user.ID, "error", recordErr)
		}
		s.metrics.ObserveLogin("invalid_credentials")
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccessfulAuth(ctx, user.ID); err != nil {
		slog.Error("failed to reset lockout state", "user_id", user.ID, "error", err)
	}

	s.metrics.ObserveLogin("success")
	return s.issuePair(user)
}

// Refresh validates a refresh token, re-reads the principal and mints a new
// pair. Token failures collapse to the generic authentication error; the
// reason is kept for diagnostics only.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken)
	if err != nil {
		s.observeTokenFailure(err)
		return model.TokenPair{}, err
	}

	if claims.Type != token.TypeRefresh {
		slog.Debug("refresh rejected", "reason", "wrong token type", "subject", claims.Subject)
		return model.TokenPair{}, apierror.Unauthorized()
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return model.TokenPair{}, apierror.Unauthorized()
	}

	if locked, until := s.lockout.Evaluate(user); locked {
		return model.TokenPair{}, lockedError(until)
	}

	return s.issuePair(user)
}

// Register creates a pending-verification principal and issues its email
// verification token. Delivering the token is the notifier's job, not ours.
func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (model.AuthUser, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return model.AuthUser{}, apierror.New("BAD_REQUEST", "username, email and password are required", "", http.StatusBadRequest)
	}
	if !strings.Contains(email, "@") {
		return model.AuthUser{}, apierror.New("BAD_REQUEST", "invalid email address", "email", http.StatusBadRequest)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return model.AuthUser{}, err
	}
	if exists {
		return model.AuthUser{}, model.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return model.AuthUser{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{defaultRole},
		Status:       model.StatusPendingVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.AuthUser{}, err
	}

	if _, err := s.verification.Issue(ctx, user.ID, model.PurposeEmailVerification); err != nil {
		// The account exists either way; the user can request a resend.
		slog.Error("failed to issue verification token on registration", "user_id", user.ID, "error", err)
	}

	slog.Info("user registered", "user_id", user.ID, "username", username)
	return user.Public(), nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

// VerifyEmail consumes an email verification token and activates the
// account it belongs to.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenString string) error {
	return s.verification.Verify(ctx, tokenString)
}

// ResendVerification looks the principal up by email. A missing account
// reports the same outcome as a successful resend upstream, so enumeration
// through this endpoint is not possible; the distinction matters only here.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (model.VerificationToken, error) {
	user, err := s.users.FindByIdentifier(ctx, email)
	if err != nil {
		return model.VerificationToken{}, err
	}
	return s.verification.Resend(ctx, user.ID, model.PurposeEmailVerification)
}

func (s *AuthService) issuePair(user model.User) (model.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Username, user.Email, user.Roles)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user.Public(),
	}, nil
}

func (s *AuthService) observeTokenFailure(err error) {
	var verr *token.ValidationError
	if errors.As(err, &verr) {
		s.metrics.ObserveTokenFailure(string(verr.Reason))
		slog.Debug("token rejected", "reason", verr.Reason)
	}
}

func lockedError(until time.Time) error {
	details := ""
	if !until.IsZero() {
		details = until.UTC().Format(time.RFC3339)
	}
	return apierror.Locked(details)
}
