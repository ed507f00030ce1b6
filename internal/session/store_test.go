package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	tokens := Tokens{IDToken: "id", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Set(ctx, tokens))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id", got.IDToken)

	token, ok := IDToken(ctx, store)
	assert.True(t, ok)
	assert.Equal(t, "id", token)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryStore_ExpiredIsDiscarded(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, Tokens{IDToken: "id", ExpiresAt: now.Add(time.Minute)}))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession, "expired tokens are removed on read")

	_, ok := IDToken(ctx, store)
	assert.False(t, ok)
}

func TestMemoryStore_RejectsExpiredSet(t *testing.T) {
	store := NewMemoryStore()
	err := store.Set(context.Background(), Tokens{IDToken: "id", ExpiresAt: time.Now().Add(-time.Second)})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestIDToken_NilStore(t *testing.T) {
	_, ok := IDToken(context.Background(), nil)
	assert.False(t, ok)
}
