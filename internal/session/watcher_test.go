package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		w := NewWatcher(NewMemoryStore(), time.Minute)
		cleared, reason, err := w.Sweep(ctx)
		require.NoError(t, err)
		assert.False(t, cleared)
		assert.Empty(t, reason)
	})

	t.Run("active session kept", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, Tokens{IDToken: "id", ExpiresAt: time.Now().Add(time.Hour)}))
		w := NewWatcher(store, time.Minute)
		w.Touch()

		cleared, _, err := w.Sweep(ctx)
		require.NoError(t, err)
		assert.False(t, cleared)
		_, err = store.Get(ctx)
		assert.NoError(t, err)
	})

	t.Run("idle timeout signs out", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, Tokens{IDToken: "id", ExpiresAt: time.Now().Add(time.Hour)}))

		now := time.Now()
		w := NewWatcher(store, 30*time.Minute)
		w.now = func() time.Time { return now }
		w.Touch()

		var got string
		w.OnSignOut(func(reason string) { got = reason })

		now = now.Add(31 * time.Minute)
		cleared, reason, err := w.Sweep(ctx)
		require.NoError(t, err)
		assert.True(t, cleared)
		assert.Equal(t, ReasonIdle, reason)
		assert.Equal(t, ReasonIdle, got)

		_, err = store.Get(ctx)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("expired token signs out", func(t *testing.T) {
		now := time.Now()
		store := NewMemoryStore()
		store.now = func() time.Time { return now }
		require.NoError(t, store.Set(ctx, Tokens{IDToken: "id", ExpiresAt: now.Add(time.Minute)}))

		w := NewWatcher(store, 0)
		now = now.Add(time.Hour)

		cleared, reason, err := w.Sweep(ctx)
		require.NoError(t, err)
		assert.True(t, cleared)
		assert.Equal(t, ReasonExpired, reason)
	})
}

func TestWatcher_StartStop(t *testing.T) {
	w := NewWatcher(NewMemoryStore(), time.Minute)
	require.NoError(t, w.Start("@every 1s"))
	w.Stop()
	w.Stop()

	assert.Error(t, NewWatcher(NewMemoryStore(), time.Minute).Start("not a spec"))
}
