package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"

	"github.com/ikusi/acta-ui/internal/logging"
	"github.com/ikusi/acta-ui/internal/session"
)

// Requester performs one backend call. The live Client and the mock layer
// both implement it; the choice is made once at startup.
type Requester interface {
	Do(ctx context.Context, r Request) (*Response, error)
}

// Options configures a live Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Store    session.Store
	Routes   *Routes
	SkipAuth bool
	// Credentials and Region are used for SigV4 routes. Without
	// credentials those routes go out unsigned.
	Credentials aws.CredentialsProvider
	Region      string
	HTTPClient  *http.Client
}

// Client sends authenticated requests to the backend gateway
type Client struct {
	baseURL  string
	timeout  time.Duration
	store    session.Store
	routes   *Routes
	skipAuth bool
	signer   *requestSigner
	http     *http.Client
}

// NewClient creates a live client
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("apiclient: parse base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	routes := opts.Routes
	if routes == nil {
		routes = DefaultRoutes()
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		hc = &copied
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		timeout:  timeout,
		store:    opts.Store,
		routes:   routes,
		skipAuth: opts.SkipAuth,
		signer:   newRequestSigner(opts.Credentials, opts.Region),
		http:     hc,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends r and classifies the answer. Every failure is an *Error.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	ctx, rid := logging.EnsureRequestID(ctx)
	logger := logging.NewLogger(ctx)
	method := r.HTTPMethod()
	start := time.Now()

	resp, err := c.do(ctx, rid, method, r, logger)
	duration := time.Since(start)
	RecordCall(duration, err)

	if err != nil {
		logger.LogError("api_call", err,
			zap.String("method", method), zap.String("path", r.Path), zap.Duration("duration", duration))
		return nil, err
	}
	logger.LogDebug("api_call", "request completed",
		zap.String("method", method), zap.String("path", r.Path),
		zap.Int("status", resp.Status), zap.Duration("duration", duration))
	return resp, nil
}

func (c *Client) do(ctx context.Context, rid, method string, r Request, logger *logging.Logger) (*Response, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	timeout = EffectiveTimeout(ctx, timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Method: method, Path: r.Path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL(c.baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Method: method, Path: r.Path, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(logging.RequestIDHeader, rid)
	for k, vs := range r.Headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	if !r.SkipAuth && !c.skipAuth {
		c.authorize(ctx, req, method, r.Path, body, logger)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, method, r.Path, timeout, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, method, r.Path, timeout, err)
	}

	return NewResponse(method, r.Path, httpResp.StatusCode, httpResp.Header, data)
}

// authorize attaches the credential the route table asks for. A missing
// credential is not an error here; the gateway rejects the call.
func (c *Client) authorize(ctx context.Context, req *http.Request, method, path string, body []byte, logger *logging.Logger) {
	switch c.routes.Lookup(method, path) {
	case AuthNone:
	case AuthSigV4:
		if c.signer == nil {
			logger.LogWarn("api_call", "no AWS credentials configured, sending unsigned request", zap.String("path", path))
			return
		}
		if err := c.signer.sign(ctx, req, body); err != nil {
			logger.LogWarn("api_call", "request not signed", zap.String("path", path), zap.Error(err))
		}
	default:
		token, ok := session.IDToken(ctx, c.store)
		if !ok {
			logger.LogWarn("api_call", "no cached identity token, sending without authorization", zap.String("path", path))
			return
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) transportError(ctx context.Context, method, path string, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Method: method, Path: path, Timeout: timeout, Err: err}
	}
	return &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
}

// EffectiveTimeout is the bound a call really runs under: timeout, or less
// when ctx already carries an earlier deadline.
func EffectiveTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout
	}
	if left := time.Until(deadline); left < timeout {
		return max(left.Round(time.Millisecond), 0)
	}
	return timeout
}
