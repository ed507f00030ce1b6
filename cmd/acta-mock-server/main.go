package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ikusi/acta-ui/config"
	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/auth"
	"github.com/ikusi/acta-ui/internal/bootstrap"
	"github.com/ikusi/acta-ui/internal/logging"
	"github.com/ikusi/acta-ui/internal/mockapi"
)

const serviceName = "acta-mock-server"

func main() {
	// The server is the mock; it never needs a backend URL.
	if os.Getenv("ACTA_USE_MOCK_API") == "" {
		_ = os.Setenv("ACTA_USE_MOCK_API", "true")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.LevelOr("info"), cfg.App.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fixtures, err := loadFixtures(cfg.Mock.FixturesPath)
	if err != nil {
		logger.Fatal("load fixtures", zap.Error(err))
	}

	var verifier auth.Verifier
	if cfg.Auth.JWKSURL != "" {
		v, err := auth.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL)
		if err != nil {
			logger.Fatal("jwks verifier", zap.Error(err))
		}
		verifier = v
		logger.Info("verifying identity tokens", zap.String("jwks_url", cfg.Auth.JWKSURL))
	}

	bootstrap.SetGinMode(cfg.App.Environment)
	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		Fixtures:    fixtures,
		Routes:      apiclient.DefaultRoutes(),
		Verifier:    verifier,
		SkipAuth:    cfg.Auth.SkipAuth,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", srv.Addr), zap.Int("fixtures", len(fixtures.All())))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func loadFixtures(path string) (*mockapi.Fixtures, error) {
	if path != "" {
		return mockapi.LoadFile(path)
	}
	return mockapi.Default()
}
