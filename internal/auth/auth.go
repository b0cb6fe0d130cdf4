// Package auth resolves who is writing. Components receive an Identity or a
// Provider explicitly instead of reading a global current user, so tests can
// inject a fixed identity.
package auth

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Credential errors.
var (
	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// Session describes a signed-in user.
type Session struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
}

// Expired reports whether the session is no longer valid at now. A zero
// ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s Session) same(o Session) bool {
	return s.UserID == o.UserID &&
		s.Email == o.Email &&
		s.CreatedAt.Equal(o.CreatedAt) &&
		s.ExpiresAt.Equal(o.ExpiresAt)
}

// Identity yields the current user id, or "" when nobody is signed in.
type Identity interface {
	CurrentUserID() string
}

// Provider exposes the current session and notifies subscribers when it
// changes. The callback receives the new session and whether one is active.
type Provider interface {
	Identity
	Session() (Session, bool)
	Subscribe(fn func(Session, bool)) (unsubscribe func())
}

// ValidateCredentials checks the shape of an email and password before any
// account lookup.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// subscribers fans session changes out to registered callbacks.
type subscribers struct {
	fns  map[int]func(Session, bool)
	next int
	mu   sync.Mutex
}

func (s *subscribers) add(fn func(Session, bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(Session, bool))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) notify(session Session, ok bool) {
	s.mu.Lock()
	fns := make([]func(Session, bool), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(session, ok)
	}
}
