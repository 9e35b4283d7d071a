package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-travel-auth/internal/model"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) get(id string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByIdentifier(_ context.Context, identifier string) (model.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.ToLower(u.Username) == identifier || strings.ToLower(u.Email) == identifier {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) ExistsByUsernameOrEmail(_ context.Context, username string, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) IncrementFailedAttempts(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, model.ErrUserNotFound
	}
	u.FailedLoginAttempts++
	s.users[userID] = u
	return u.FailedLoginAttempts, nil
}

func (s *fakeUserStore) LockAccount(_ context.Context, userID string, until *time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.LockedUntil = until
	u.LockReason = reason
	u.Status = model.StatusLocked
	s.users[userID] = u
	return nil
}

func (s *fakeUserStore) ResetFailedAttempts(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LockReason = ""
	if u.Status == model.StatusLocked {
		u.Status = model.StatusActive
	}
	s.users[userID] = u
	return nil
}

func (s *fakeUserStore) MarkEmailVerified(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.EmailVerified = true
	if u.Status == model.StatusPendingVerification {
		u.Status = model.StatusActive
	}
	s.users[userID] = u
	return nil
}

type fakeVerificationStore struct {
	mu     sync.Mutex
	tokens map[string]model.VerificationToken
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{tokens: map[string]model.VerificationToken{}}
}

func (s *fakeVerificationStore) Create(_ context.Context, t model.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID] = t
	return nil
}

func (s *fakeVerificationStore) DeleteUnverified(_ context.Context, userID string, purpose string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, t := range s.tokens {
		if t.UserID == userID && t.Purpose == purpose && !t.Verified {
			delete(s.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeVerificationStore) Consume(_ context.Context, tokenString string, now time.Time) (model.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tokens {
		if t.Token == tokenString && !t.Verified && t.ExpiresAt.After(now) {
			t.Verified = true
			verifiedAt := now
			t.VerifiedAt = &verifiedAt
			t.Attempts++
			s.tokens[id] = t
			return t, nil
		}
	}
	return model.VerificationToken{}, model.ErrInvalidOrExpiredToken
}

func (s *fakeVerificationStore) CleanExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, t := range s.tokens {
		if !t.ExpiresAt.After(now) {
			delete(s.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeVerificationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
