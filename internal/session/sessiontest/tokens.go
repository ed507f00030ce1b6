// Package sessiontest builds identity tokens for tests.
package sessiontest

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ikusi/acta-ui/internal/session"
)

// IDToken returns an HS256-signed token carrying the Cognito-style claims
// the client reads.
func IDToken(t testing.TB, email string, expiresAt time.Time) string {
	t.Helper()
	claims := session.Claims{
		Email:    email,
		Username: email,
		Groups:   []string{"pm"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-" + email,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return token
}

// SignedIn returns a memory store holding a valid session for email.
func SignedIn(t testing.TB, email string) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore()
	tokens, err := session.NewTokens(IDToken(t, email, time.Now().Add(time.Hour)), "access", "refresh", 0)
	if err != nil {
		t.Fatalf("build tokens: %v", err)
	}
	if err := store.Set(context.Background(), tokens); err != nil {
		t.Fatalf("store tokens: %v", err)
	}
	return store
}
