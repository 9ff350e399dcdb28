// Package session holds the authenticated user and bearer token for one app
// instance. It is passed explicitly to every component that needs it, so
// tests can inject a fake session instead of mutating process-wide state.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/barberbook/bookingkit/internal/api"
)

// Store is a concurrency-safe holder for the current session. The zero
// value is an unauthenticated session; NewStore is provided for symmetry
// with the rest of the module.
type Store struct {
	mu    sync.RWMutex
	user  *api.User
	token string

	now func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// NewStoreWithClock is NewStore with an injected clock, used by tests and
// tooling that need token expiry judged against a frozen time.
func NewStoreWithClock(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

// Set replaces the session after a successful register or login.
func (s *Store) Set(user api.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.user = &u
	s.token = token
}

// Clear logs out locally. The backend keeps no session state to invalidate.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user, if any.
func (s *Store) User() (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return api.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a usable session is present. A token that
// decodes as a JWT with an elapsed exp claim counts as signed out; opaque
// tokens are trusted as-is since only the server can judge them.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	nowFn := s.now
	if nowFn == nil {
		nowFn = time.Now
	}
	return exp.After(nowFn())
}
