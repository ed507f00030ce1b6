package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/ikusi/acta-ui/internal/logging"
	"github.com/ikusi/acta-ui/internal/session"
)

var DefaultScopes = []string{"openid", "email", "profile"}

// HostedUI drives the authorization-code flow of the hosted sign-in domain.
type HostedUI struct {
	cfg *oauth2.Config
}

// NewHostedUI builds the flow for domain, e.g. "acta.auth.us-east-2.amazoncognito.com".
func NewHostedUI(domain, clientID, redirectURL string) *HostedUI {
	base := strings.TrimRight(domain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return &HostedUI{cfg: &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Scopes:      DefaultScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/oauth2/authorize",
			TokenURL:  base + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}}
}

func (h *HostedUI) AuthCodeURL(state string) string {
	return h.cfg.AuthCodeURL(state)
}

func (h *HostedUI) Exchange(ctx context.Context, code string) (session.Tokens, error) {
	tok, err := h.cfg.Exchange(ctx, code)
	if err != nil {
		return session.Tokens{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tokensFromOAuth(tok, "")
}

func (h *HostedUI) Refresh(ctx context.Context, refreshToken string) (session.Tokens, error) {
	tok, err := h.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return session.Tokens{}, fmt.Errorf("refresh token: %w", err)
	}
	return tokensFromOAuth(tok, refreshToken)
}

func tokensFromOAuth(tok *oauth2.Token, refreshToken string) (session.Tokens, error) {
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return session.Tokens{}, ErrNoIDToken
	}
	if tok.RefreshToken != "" {
		refreshToken = tok.RefreshToken
	}
	var ttl time.Duration
	if !tok.Expiry.IsZero() {
		ttl = time.Until(tok.Expiry)
	}
	return session.NewTokens(idToken, tok.AccessToken, refreshToken, ttl)
}

// NewState returns a random value for the state parameter.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ReceiveCode listens on the redirect URL's host and returns the code
// delivered to its path once state matches.
func ReceiveCode(ctx context.Context, redirectURL, state string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("parse redirect url: %w", err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(path, func(c *gin.Context) {
		res := result{code: c.Query("code")}
		switch {
		case c.Query("error") != "":
			res.err = fmt.Errorf("sign-in failed: %s %s", c.Query("error"), c.Query("error_description"))
		case c.Query("state") != state:
			res.err = errors.New("sign-in failed: state mismatch")
		case res.code == "":
			res.err = errors.New("sign-in failed: no authorization code")
		}
		if res.err != nil {
			c.String(http.StatusBadRequest, res.err.Error())
		} else {
			c.String(http.StatusOK, "Signed in. You can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", u.Host, err)
	}
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.NewLogger(ctx).LogError("receive_code", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
