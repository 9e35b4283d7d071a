package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-travel-auth/internal/metrics"
	"go-travel-auth/internal/model"
	"go-travel-auth/internal/token"
)

type tokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	validator tokenValidator
	metrics   *metrics.Metrics
}

func NewAuthMiddleware(validator tokenValidator, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, metrics: m}
}

// RequireAuth validates the bearer token on the request. Every failure mode
// collapses to the same generic response; the reason is logged and counted
// internally only.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication failed")
			return
		}

		claims, err := m.validator.Validate(strings.TrimSpace(header[7:]))
		if err != nil {
			m.observeFailure(err)
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication failed")
			return
		}

		// Refresh tokens only mint new pairs; they never grant access.
		if claims.Type == token.TypeRefresh {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication failed")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication failed")
				return
			}

			for _, role := range claims.Roles {
				if _, allowed := roleSet[strings.ToLower(role)]; allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*token.Claims)
	return claims, ok
}

func (m *AuthMiddleware) observeFailure(err error) {
	var verr *token.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	m.metrics.ObserveTokenFailure(string(verr.Reason))
	slog.Debug("bearer token rejected", "reason", verr.Reason)
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
