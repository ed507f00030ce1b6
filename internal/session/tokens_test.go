package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikusi/acta-ui/internal/session"
	"github.com/ikusi/acta-ui/internal/session/sessiontest"
)

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := sessiontest.IDToken(t, "alice@example.com", exp)

	claims, err := session.ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice@example.com", claims.Username)
	assert.Equal(t, []string{"pm"}, claims.Groups)
	assert.True(t, exp.Equal(claims.ExpiresAt.Time))
}

func TestParseClaims_Garbage(t *testing.T) {
	_, err := session.ParseClaims("not-a-jwt")
	assert.Error(t, err)
}

func TestNewTokens_ExpiryFromClaim(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	tokens, err := session.NewTokens(sessiontest.IDToken(t, "bob@example.com", exp), "a", "r", time.Minute)
	require.NoError(t, err)
	assert.True(t, exp.Equal(tokens.ExpiresAt))
	assert.Equal(t, "r", tokens.RefreshToken)
}

func TestTokensExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, session.Tokens{}.Expired(now), "empty tokens are never usable")
	assert.False(t, session.Tokens{IDToken: "x"}.Expired(now), "no expiry means valid")
	assert.True(t, session.Tokens{IDToken: "x", ExpiresAt: now}.Expired(now))
	assert.False(t, session.Tokens{IDToken: "x", ExpiresAt: now.Add(time.Second)}.Expired(now))
}
