package acta

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikusi/acta-ui/internal/apiclient"
)

func TestBulkGenerate_CollectsFailures(t *testing.T) {
	stub := &stubRequester{fn: func(r apiclient.Request) (*apiclient.Response, error) {
		if r.Path == "/extract-project-place/bad" {
			return nil, &apiclient.Error{Kind: apiclient.KindServer, Method: http.MethodPost, Path: r.Path, Status: 500}
		}
		return jsonResponse(200, `{"success":true}`)
	}}

	res := NewService(stub, 0).BulkGenerate(context.Background(), []string{"a", "bad", "c"}, 2, 0)

	assert.Equal(t, []string{"a", "c"}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "bad", res.Failed[0].ProjectID)
	assert.ErrorIs(t, res.Failed[0].Err, apiclient.ErrServer)
	assert.Equal(t, 3, res.Total())
	assert.Len(t, stub.reqs, 3)
}

func TestBulkGenerate_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return jsonResponse(200, `{}`)
	}}

	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	res := NewService(stub, 0).BulkGenerate(context.Background(), ids, 3, 0)

	assert.Len(t, res.Succeeded, len(ids))
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestBulkGenerate_Paced(t *testing.T) {
	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		return jsonResponse(200, `{}`)
	}}

	start := time.Now()
	res := NewService(stub, 0).BulkGenerate(context.Background(), []string{"1", "2", "3"}, 3, 20)

	assert.Len(t, res.Succeeded, 3)
	// burst of one, then 50ms between starts
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestBulkGenerate_Cancelled(t *testing.T) {
	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		return jsonResponse(200, `{}`)
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewService(stub, 0).BulkGenerate(ctx, []string{"1", "2"}, 1, 1)

	assert.Empty(t, res.Succeeded)
	require.Len(t, res.Failed, 2)
	assert.True(t, errors.Is(res.Failed[0].Err, context.Canceled))
}
