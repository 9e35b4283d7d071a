package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ServerPort:         "8080",
		RequestTimeout:     30 * time.Second,
		DatabaseURL:        "postgres://localhost/auth",
		JWTSecret:          "secret",
		JWTAccessTTL:       time.Hour,
		JWTRefreshTTL:      168 * time.Hour,
		RateLimitWindow:    time.Minute,
		RateLimitStandard:  5,
		RateLimitSensitive: 3,
		LockoutThreshold:   5,
		LockoutDuration:    15 * time.Minute,
		VerificationTTL:    24 * time.Hour,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.JWTSecret = " "
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.DatabaseURL = ""
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.JWTRefreshTTL = cfg.JWTAccessTTL
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimitSensitive = 0
	require.Error(t, cfg.Validate())
}

func TestLoad_RequiresExplicitFailPolicy(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/auth")

	t.Setenv("RATE_LIMIT_FAIL_OPEN", "")
	_, err := Load()
	require.ErrorContains(t, err, "RATE_LIMIT_FAIL_OPEN")

	t.Setenv("RATE_LIMIT_FAIL_OPEN", "maybe")
	_, err = Load()
	require.ErrorContains(t, err, "RATE_LIMIT_FAIL_OPEN")

	t.Setenv("RATE_LIMIT_FAIL_OPEN", "false")
	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.RateLimitFailOpen)
}
