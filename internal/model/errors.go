package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Authentication errors. ErrInvalidCredentials is deliberately generic:
	// unknown user, wrong password and bad token all collapse into it so the
	// caller cannot probe account state.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")

	// Verification token errors. Not-found, already-used and expired are
	// indistinguishable on purpose.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrAlreadyVerified       = errors.New("already verified")

	// Rate limiting
	ErrRateLimited = errors.New("too many requests")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
