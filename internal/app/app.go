// Package app wires configuration into the request path shared by the CLI
// and the dashboard: one session store, one Requester chosen at startup,
// and the typed service on top.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/redis/go-redis/v9"

	"github.com/ikusi/acta-ui/config"
	"github.com/ikusi/acta-ui/internal/acta"
	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/awsdata"
	"github.com/ikusi/acta-ui/internal/identity"
	"github.com/ikusi/acta-ui/internal/logging"
	"github.com/ikusi/acta-ui/internal/mockapi"
	"github.com/ikusi/acta-ui/internal/session"
)

var (
	ErrNoUserPool = errors.New("ACTA_COGNITO_CLIENT_ID is not set")
	ErrNoDomain   = errors.New("ACTA_COGNITO_DOMAIN is not set")
)

// Options are command-line overrides applied on top of the config.
type Options struct {
	Profile string
	Mock    bool
	Timeout time.Duration
}

type App struct {
	Config  *config.Config
	Store   session.Store
	API     apiclient.Requester
	Service *acta.Service
	Watcher *session.Watcher
	Mock    bool

	profile string
	redis   *redis.Client
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.Timeout > 0 {
		cfg.API.Timeout = opts.Timeout
	}
	a := &App{
		Config:  cfg,
		Mock:    cfg.Mock.Enabled || opts.Mock,
		profile: opts.Profile,
	}

	if err := a.openStore(); err != nil {
		return nil, err
	}

	api, err := a.newRequester(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.API = api
	a.Service = acta.NewService(api, cfg.API.HealthTimeout)
	a.Watcher = session.NewWatcher(a.Store, cfg.Auth.IdleTimeout)

	logging.NewLogger(ctx).LogInfof("app_init", "mock=%t token_cache=%s", a.Mock, cfg.Auth.TokenCache)
	return a, nil
}

func (a *App) openStore() error {
	switch a.Config.Auth.TokenCache {
	case config.TokenCacheMemory:
		a.Store = session.NewMemoryStore()
	case config.TokenCacheRedis:
		client, err := session.NewRedisClient(a.Config.Auth.RedisURL)
		if err != nil {
			return err
		}
		a.redis = client
		a.Store = session.NewRedisStore(client, a.profile)
	default:
		dir := a.Config.Auth.SessionDir
		if dir == "" {
			dir = session.DefaultSessionDir()
		}
		a.Store = session.NewFileStore(dir, a.profile)
	}
	return nil
}

// newRequester picks the mock or the live client. Nothing downstream
// checks the mode again.
func (a *App) newRequester(ctx context.Context) (apiclient.Requester, error) {
	cfg := a.Config
	if a.Mock {
		fixtures, err := a.fixtures()
		if err != nil {
			return nil, err
		}
		return mockapi.New(mockapi.Options{
			Fixtures: fixtures,
			Store:    a.Store,
			SkipAuth: cfg.Auth.SkipAuth,
			MinDelay: cfg.Mock.MinDelay,
			MaxDelay: cfg.Mock.MaxDelay,
			Timeout:  cfg.API.Timeout,
		})
	}

	var creds aws.CredentialsProvider
	if cfg.Auth.IdentityPoolID != "" {
		awsCfg, err := identity.NewConfig(ctx, cfg.Auth.Region)
		if err != nil {
			return nil, err
		}
		pool := identity.NewPoolCredentials(cognitoidentity.NewFromConfig(awsCfg),
			cfg.Auth.IdentityPoolID, cfg.Auth.Region, cfg.Auth.UserPoolID, a.Store)
		creds = pool.Cached()
	}

	return apiclient.NewClient(apiclient.Options{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		Store:       a.Store,
		SkipAuth:    cfg.Auth.SkipAuth,
		Credentials: creds,
		Region:      cfg.Auth.Region,
	})
}

func (a *App) fixtures() (*mockapi.Fixtures, error) {
	if path := a.Config.Mock.FixturesPath; path != "" {
		return mockapi.LoadFile(path)
	}
	return mockapi.Default()
}

// PasswordAuthenticator returns the user-pool sign-in flow.
func (a *App) PasswordAuthenticator(ctx context.Context) (*identity.PasswordAuthenticator, error) {
	if a.Config.Auth.ClientID == "" {
		return nil, ErrNoUserPool
	}
	awsCfg, err := identity.NewConfig(ctx, a.Config.Auth.Region)
	if err != nil {
		return nil, err
	}
	return identity.NewPasswordAuthenticator(cip.NewFromConfig(awsCfg), a.Config.Auth.ClientID), nil
}

func (a *App) HostedUI() (*identity.HostedUI, error) {
	if a.Config.Auth.Domain == "" {
		return nil, ErrNoDomain
	}
	if a.Config.Auth.ClientID == "" {
		return nil, ErrNoUserPool
	}
	return identity.NewHostedUI(a.Config.Auth.Domain, a.Config.Auth.ClientID, a.Config.Auth.RedirectURL), nil
}

// AWSData opens the direct table and bucket readers with the operator's
// own AWS credentials.
func (a *App) AWSData(ctx context.Context) (*awsdata.Projects, *awsdata.Documents, error) {
	return awsdata.New(ctx, a.Config.Storage, a.profile)
}

// SignIn stores tokens and resets the idle clock.
func (a *App) SignIn(ctx context.Context, tokens session.Tokens) error {
	if err := a.Store.Set(ctx, tokens); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	a.Watcher.Touch()
	return nil
}

func (a *App) SignOut(ctx context.Context) error {
	return a.Store.Clear(ctx)
}

func (a *App) Close() error {
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
