package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ikusi/acta-ui/internal/session"
)

var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks an identity token and returns its claims.
type Verifier interface {
	Verify(token string) (*session.Claims, error)
}

// JWTVerifier validates identity tokens against a set of public keys.
// Only RS256 and ES256 are accepted.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewJWKSVerifier fetches signing keys from jwksURL. keyfunc refreshes the
// set in the background until ctx is done.
func NewJWKSVerifier(ctx context.Context, jwksURL string) (*JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}
	return NewVerifier(jwks.Keyfunc), nil
}

func NewVerifier(kf jwt.Keyfunc) *JWTVerifier {
	return &JWTVerifier{
		keyfunc: kf,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256", "ES256"}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *JWTVerifier) Verify(tokenString string) (*session.Claims, error) {
	var claims session.Claims
	token, err := v.parser.ParseWithClaims(tokenString, &claims, v.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}
	return &claims, nil
}
