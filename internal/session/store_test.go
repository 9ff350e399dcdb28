package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/barberbook/bookingkit/internal/api"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "u1", "exp": exp.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestStore_EmptyIsUnauthenticated(t *testing.T) {
	s := NewStore()
	if s.Authenticated() {
		t.Error("empty store should not be authenticated")
	}
	if s.Token() != "" {
		t.Errorf("Token() = %q, want empty", s.Token())
	}
	if _, ok := s.User(); ok {
		t.Error("User() should report absent")
	}
}

func TestStore_SetAndClear(t *testing.T) {
	s := NewStore()
	s.Set(api.User{ID: "u1", Name: "Jane"}, "opaque-token")

	if !s.Authenticated() {
		t.Error("store with token should be authenticated")
	}
	if s.Token() != "opaque-token" {
		t.Errorf("Token() = %q", s.Token())
	}
	user, ok := s.User()
	if !ok || user.ID != "u1" {
		t.Errorf("User() = %+v, %v", user, ok)
	}

	s.Clear()
	if s.Authenticated() {
		t.Error("cleared store should not be authenticated")
	}
}

func TestStore_ExpiredJWTIsSignedOut(t *testing.T) {
	s := NewStore()
	s.Set(api.User{ID: "u1"}, signedToken(t, time.Now().Add(-time.Hour)))
	if s.Authenticated() {
		t.Error("expired JWT should count as signed out")
	}
}

func TestStore_LiveJWTIsAuthenticated(t *testing.T) {
	s := NewStore()
	s.Set(api.User{ID: "u1"}, signedToken(t, time.Now().Add(time.Hour)))
	if !s.Authenticated() {
		t.Error("unexpired JWT should be authenticated")
	}
}

func TestStore_InjectedClockJudgesExpiry(t *testing.T) {
	frozen := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	token := signedToken(t, frozen.Add(24*time.Hour))

	// Valid relative to the frozen clock, no matter what the host date is.
	s := NewStoreWithClock(func() time.Time { return frozen })
	s.Set(api.User{ID: "u1"}, token)
	if !s.Authenticated() {
		t.Error("token unexpired under the injected clock should be authenticated")
	}

	// The same token reads as signed out once the clock passes exp.
	late := NewStoreWithClock(func() time.Time { return frozen.Add(48 * time.Hour) })
	late.Set(api.User{ID: "u1"}, token)
	if late.Authenticated() {
		t.Error("token expired under the injected clock should be signed out")
	}
}

func TestStore_OpaqueTokenIsTrusted(t *testing.T) {
	s := NewStore()
	s.Set(api.User{ID: "u1"}, "not.a.jwt-at-all")
	if !s.Authenticated() {
		t.Error("opaque token should be trusted client-side")
	}
}
