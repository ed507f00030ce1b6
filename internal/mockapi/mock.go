// Package mockapi answers backend requests from canned fixtures so the
// client runs without a backend.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/logging"
	"github.com/ikusi/acta-ui/internal/session"
)

var ErrNoMock = errors.New("no mock configured")

const (
	DefaultMinDelay = 200 * time.Millisecond
	DefaultMaxDelay = 500 * time.Millisecond
)

type Options struct {
	Fixtures *Fixtures
	Store    session.Store
	Routes   *apiclient.Routes
	SkipAuth bool
	MinDelay time.Duration
	MaxDelay time.Duration
	Timeout  time.Duration
}

// Mock is an apiclient.Requester that never touches the network.
type Mock struct {
	fixtures *Fixtures
	store    session.Store
	routes   *apiclient.Routes
	skipAuth bool
	minDelay time.Duration
	maxDelay time.Duration
	timeout  time.Duration
	now      func() time.Time
}

var _ apiclient.Requester = (*Mock)(nil)

func New(opts Options) (*Mock, error) {
	fixtures := opts.Fixtures
	if fixtures == nil {
		var err error
		if fixtures, err = Default(); err != nil {
			return nil, err
		}
	}
	routes := opts.Routes
	if routes == nil {
		routes = apiclient.DefaultRoutes()
	}
	if opts.MinDelay < 0 || opts.MaxDelay < opts.MinDelay {
		return nil, fmt.Errorf("mockapi: invalid delay window [%s, %s]", opts.MinDelay, opts.MaxDelay)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = apiclient.DefaultTimeout
	}

	return &Mock{
		fixtures: fixtures,
		store:    opts.Store,
		routes:   routes,
		skipAuth: opts.SkipAuth,
		minDelay: opts.MinDelay,
		maxDelay: opts.MaxDelay,
		timeout:  timeout,
		now:      time.Now,
	}, nil
}

func (m *Mock) Do(ctx context.Context, r apiclient.Request) (*apiclient.Response, error) {
	ctx, _ = logging.EnsureRequestID(ctx)
	logger := logging.NewLogger(ctx)
	method := r.HTTPMethod()
	start := time.Now()

	resp, err := m.do(ctx, method, r)
	duration := time.Since(start)
	if !errors.Is(err, ErrNoMock) {
		apiclient.RecordCall(duration, err)
	}

	if err != nil {
		logger.LogWarn("mock_api_call", err.Error(), zap.String("method", method), zap.String("path", r.Path))
		return nil, err
	}
	logger.LogDebug("mock_api_call", "served from fixtures",
		zap.String("method", method), zap.String("path", r.Path),
		zap.Int("status", resp.Status), zap.Duration("duration", duration))
	return resp, nil
}

func (m *Mock) do(ctx context.Context, method string, r apiclient.Request) (*apiclient.Response, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = m.timeout
	}
	timeout = apiclient.EffectiveTimeout(ctx, timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := m.sleep(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &apiclient.Error{Kind: apiclient.KindTimeout, Method: method, Path: r.Path, Timeout: timeout, Err: err}
		}
		return nil, &apiclient.Error{Kind: apiclient.KindNetwork, Method: method, Path: r.Path, Err: err}
	}

	path, query := splitQuery(r.Path)
	for k, vs := range r.Query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}

	if !r.SkipAuth && !m.skipAuth {
		if status := m.authorize(ctx, method, path); status != 0 {
			return apiclient.NewResponse(method, r.Path, status, http.Header{"Content-Type": {"application/json"}},
				[]byte(`{"message":"Unauthorized"}`))
		}
	}

	fx, params, ok := m.fixtures.Match(method, path)
	if !ok {
		return nil, fmt.Errorf("%w for %s %s", ErrNoMock, method, path)
	}

	values := make(map[string]string, len(params)+len(query))
	for k := range query {
		values[k] = query.Get(k)
	}
	for k, v := range params {
		values[k] = v
	}

	rendered, err := fx.Render(values, m.now())
	if err != nil {
		return nil, err
	}
	return apiclient.NewResponse(method, r.Path, rendered.Status, rendered.Header, rendered.Body)
}

// authorize returns the status the gateway would reject the call with, or
// 0. SigV4 credentials derive from the signed-in identity, so both
// protected modes need a cached token here.
func (m *Mock) authorize(ctx context.Context, method, path string) int {
	mode := m.routes.Lookup(method, path)
	if mode == apiclient.AuthNone {
		return 0
	}
	if _, ok := session.IDToken(ctx, m.store); ok {
		return 0
	}
	if mode == apiclient.AuthSigV4 {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func (m *Mock) sleep(ctx context.Context) error {
	d := m.minDelay
	if spread := m.maxDelay - m.minDelay; spread > 0 {
		d += rand.N(spread + 1)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func splitQuery(p string) (string, url.Values) {
	path, rawQuery, _ := strings.Cut(p, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	return path, query
}
