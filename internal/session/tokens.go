package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSession = errors.New("no active session")
	ErrExpired   = errors.New("session expired")
)

// Tokens is the credential set issued by the identity provider after sign-in.
type Tokens struct {
	IDToken      string    `json:"id_token"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the tokens can no longer be presented. Tokens
// without an ID token are always expired.
func (t Tokens) Expired(now time.Time) bool {
	if t.IDToken == "" {
		return true
	}
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Claims are the identity-token claims the client displays. The token is
// never verified here; the gateway does that.
type Claims struct {
	Email    string   `json:"email,omitempty"`
	Username string   `json:"cognito:username,omitempty"`
	Groups   []string `json:"cognito:groups,omitempty"`
	jwt.RegisteredClaims
}

func ParseClaims(idToken string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}
	return &claims, nil
}

// NewTokens builds Tokens taking the expiry from the ID token's exp claim.
// fallbackTTL is used when the token carries no exp.
func NewTokens(idToken, accessToken, refreshToken string, fallbackTTL time.Duration) (Tokens, error) {
	claims, err := ParseClaims(idToken)
	if err != nil {
		return Tokens{}, err
	}

	t := Tokens{
		IDToken:      idToken,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	switch {
	case claims.ExpiresAt != nil:
		t.ExpiresAt = claims.ExpiresAt.Time
	case fallbackTTL > 0:
		t.ExpiresAt = time.Now().Add(fallbackTTL)
	}
	return t, nil
}
