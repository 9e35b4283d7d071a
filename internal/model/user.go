package model

import "time"

const (
	StatusActive              = "active"
	StatusLocked              = "locked"
	StatusPendingVerification = "pending_verification"
)

type User struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Roles               []string   `json:"roles"`
	Status              string     `json:"status"`
	EmailVerified       bool       `json:"email_verified"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LockReason          string     `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type AuthUser struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	Status        string   `json:"status"`
	EmailVerified bool     `json:"email_verified"`
}

func (u User) Public() AuthUser {
	return AuthUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Roles:         u.Roles,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
	}
}

type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         AuthUser `json:"user"`
}
