package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-travel-auth/internal/token"
)

func testValidator(t *testing.T) *token.Manager {
	t.Helper()

	m, err := token.NewManager(token.Config{
		Secret:     []byte("test-secret-at-least-32-bytes-long"),
		Issuer:     "travel-auth",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return m
}

func echoClaims(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-Subject", claims.Subject)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	manager := testValidator(t)
	handler := NewAuthMiddleware(manager, nil).RequireAuth(echoClaims(t))

	access, err := manager.IssueAccessToken("u1", "marco", "marco@example.com", []string{"traveler"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Header().Get("X-Subject"))
}

func TestRequireAuth_GenericRejections(t *testing.T) {
	manager := testValidator(t)
	handler := NewAuthMiddleware(manager, nil).RequireAuth(echoClaims(t))

	refresh, err := manager.IssueRefreshToken("u1")
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":    "",
		"not bearer":        "Basic abc",
		"garbage token":     "Bearer not-a-token",
		"refresh as access": "Bearer " + refresh,
	}

	for name, header := range cases {
		req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
		require.Contains(t, rec.Body.String(), "authentication failed", name)
	}
}

func TestRequireRoles(t *testing.T) {
	manager := testValidator(t)
	mw := NewAuthMiddleware(manager, nil)
	handler := mw.RequireAuth(mw.RequireRoles("admin")(echoClaims(t)))

	adminToken, err := manager.IssueAccessToken("u1", "root", "root@example.com", []string{"admin", "traveler"})
	require.NoError(t, err)
	travelerToken, err := manager.IssueAccessToken("u2", "marco", "marco@example.com", []string{"traveler"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/admin/users/u2/lock", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("POST", "/api/v1/admin/users/u2/lock", nil)
	req.Header.Set("Authorization", "Bearer "+travelerToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGovernor_CapsThroughput(t *testing.T) {
	handler := Governor(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
