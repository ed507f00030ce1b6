package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ikusi/acta-ui/internal/session"
)

const offlineIssuer = "acta-offline"

// OfflineTokens mints a session for mock mode, where no identity provider
// is reachable. The token is signed with a fixed key and is only accepted
// by the in-process mock and the offline server without a JWKS verifier.
func OfflineTokens(email string, ttl time.Duration) (session.Tokens, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return session.Tokens{}, fmt.Errorf("%w: empty username", ErrInvalidCredentials)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := session.Claims{
		Email:    email,
		Username: email,
		Groups:   []string{"pm"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    offlineIssuer,
			Subject:   "offline-" + email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(offlineIssuer))
	if err != nil {
		return session.Tokens{}, fmt.Errorf("sign offline token: %w", err)
	}
	return session.NewTokens(token, "offline-access", "", ttl)
}
