// Package token issues and validates the compact signed tokens that carry a
// session's identity claims. Tokens are stateless: validity is a function of
// the signature, the claims and the current time only.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrTokenInvalid is the only validation failure callers outside this package
// should branch on. The concrete reason stays internal (see ValidationError).
var ErrTokenInvalid = errors.New("authentication failed")

// Reason classifies a validation failure for internal diagnostics. It is
// never echoed to the untrusted caller.
type Reason string

const (
	ReasonMalformed    Reason = "malformed"
	ReasonBadSignature Reason = "bad_signature"
	ReasonWrongIssuer  Reason = "wrong_issuer"
	ReasonExpired      Reason = "expired"
)

type ValidationError struct {
	Reason Reason
	cause  error
}

func (e *ValidationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.cause)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.cause }

func (e *ValidationError) Is(target error) bool { return target == ErrTokenInvalid }

type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// Claims is the typed view of a validated token. Roles are decoded into a
// plain slice; no reflective traversal of a generic claim map.
type Claims struct {
	Subject   string
	Username  string
	Email     string
	Roles     []string
	Type      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Type     string   `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a symmetric HMAC-SHA256 key. It is
// safe for concurrent use.
type Manager struct {
	config Config
	now    func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("token issuer is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}
	if cfg.Leeway < 0 {
		return nil, errors.New("leeway cannot be negative")
	}

	return &Manager{config: cfg, now: time.Now}, nil
}

// IssueAccessToken mints a signed access token for the given subject carrying
// username, email and role claims.
func (m *Manager) IssueAccessToken(subjectID string, username string, email string, roles []string) (string, error) {
	now := m.now().UTC()
	return m.sign(jwtClaims{
		Username: username,
		Email:    email,
		Roles:    roles,
		Type:     TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	})
}

// IssueRefreshToken mints a minimal refresh token: subject and the "refresh"
// type marker only. Its expiry is strictly later than any access token's.
func (m *Manager) IssueRefreshToken(subjectID string) (string, error) {
	now := m.now().UTC()
	return m.sign(jwtClaims{
		Type: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
		},
	})
}

// Validate checks a token string in a fixed order: structural parse,
// signature, issuer, expiry. The first failure short-circuits. Claims are
// trusted only after the signature check passes.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		reason := ReasonMalformed
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			reason = ReasonBadSignature
		}
		return nil, &ValidationError{Reason: reason, cause: err}
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok {
		return nil, &ValidationError{Reason: ReasonMalformed}
	}

	if claims.Issuer != m.config.Issuer {
		return nil, &ValidationError{Reason: ReasonWrongIssuer}
	}

	if claims.ExpiresAt == nil {
		return nil, &ValidationError{Reason: ReasonExpired}
	}
	if m.now().After(claims.ExpiresAt.Time.Add(m.config.Leeway)) {
		return nil, &ValidationError{Reason: ReasonExpired}
	}

	out := &Claims{
		Subject:   claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		Roles:     claims.Roles,
		Type:      claims.Type,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	return out, nil
}

// AccessTTL exposes the configured access token lifetime for response bodies.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

func (m *Manager) sign(claims jwtClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
