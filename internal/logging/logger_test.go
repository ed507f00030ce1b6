package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEnsureRequestID(t *testing.T) {
	ctx, rid := EnsureRequestID(context.Background())
	require.NotEmpty(t, rid)
	assert.Equal(t, rid, RequestID(ctx))

	same, again := EnsureRequestID(ctx)
	assert.Equal(t, rid, again)
	assert.Equal(t, ctx, same)
}

func TestLoggerCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetDefault(zap.New(core))
	t.Cleanup(func() { SetDefault(nil) })

	ctx := WithRequestID(context.Background(), "rid-1")
	logger := NewLogger(ctx)
	logger.LogInfof("list_projects", "loaded %d projects", 3)
	logger.LogError("download", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "loaded 3 projects", entries[0].Message)
	assert.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "list_projects", entries[0].ContextMap()["operation"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestLoggerWithoutRequestID(t *testing.T) {
	assert.Equal(t, "unknown", NewLogger(context.Background()).RequestID())
}

func TestNew(t *testing.T) {
	l, err := New("debug", "production")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = New("loud", "development")
	assert.Error(t, err)
}
