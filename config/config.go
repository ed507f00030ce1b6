package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
)

const (
	TokenCacheFile   = "file"
	TokenCacheMemory = "memory"
	TokenCacheRedis  = "redis"

	EnvProduction = "production"
)

type Config struct {
	Server  ServerConfig
	API     APIConfig
	Auth    AuthConfig
	Mock    MockConfig
	Storage StorageConfig
	App     AppConfig
}

// ServerConfig is only read by the offline mock server.
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	HealthTimeout time.Duration
}

type AuthConfig struct {
	Region         string
	UserPoolID     string
	ClientID       string
	Domain         string
	RedirectURL    string
	IdentityPoolID string
	SkipAuth       bool
	IdleTimeout    time.Duration
	TokenCache     string
	SessionDir     string
	RedisURL       string
	JWKSURL        string
}

type MockConfig struct {
	Enabled      bool
	FixturesPath string
	MinDelay     time.Duration
	MaxDelay     time.Duration
}

type StorageConfig struct {
	Bucket         string
	Region         string
	ProjectsTable  string
	DocumentPrefix string
	PresignTTL     time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	region := getEnv("ACTA_COGNITO_REGION", "us-east-2")

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		API: APIConfig{
			BaseURL:       strings.TrimRight(getEnv("ACTA_API_BASE_URL", ""), "/"),
			Timeout:       getEnvAsDuration("ACTA_API_TIMEOUT", 30*time.Second),
			HealthTimeout: getEnvAsDuration("ACTA_HEALTH_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			Region:         region,
			UserPoolID:     getEnv("ACTA_COGNITO_POOL_ID", ""),
			ClientID:       getEnv("ACTA_COGNITO_CLIENT_ID", ""),
			Domain:         getEnv("ACTA_COGNITO_DOMAIN", ""),
			RedirectURL:    getEnv("ACTA_COGNITO_REDIRECT_URL", "http://localhost:5173/"),
			IdentityPoolID: getEnv("ACTA_IDENTITY_POOL_ID", ""),
			SkipAuth:       getEnvAsBool("ACTA_SKIP_AUTH", false),
			IdleTimeout:    getEnvAsDuration("ACTA_IDLE_TIMEOUT", 30*time.Minute),
			TokenCache:     getEnv("ACTA_TOKEN_CACHE", TokenCacheFile),
			SessionDir:     getEnv("ACTA_SESSION_DIR", ""),
			RedisURL:       getEnv("ACTA_REDIS_URL", ""),
			JWKSURL:        getEnv("ACTA_JWKS_URL", ""),
		},
		Mock: MockConfig{
			Enabled:      getEnvAsBool("ACTA_USE_MOCK_API", false),
			FixturesPath: getEnv("ACTA_MOCK_FIXTURES", ""),
			MinDelay:     getEnvAsDuration("ACTA_MOCK_MIN_DELAY", 200*time.Millisecond),
			MaxDelay:     getEnvAsDuration("ACTA_MOCK_MAX_DELAY", 500*time.Millisecond),
		},
		Storage: StorageConfig{
			Bucket:         getEnv("ACTA_S3_BUCKET", ""),
			Region:         getEnv("ACTA_S3_REGION", region),
			ProjectsTable:  getEnv("ACTA_DYNAMODB_TABLE", ""),
			DocumentPrefix: getEnv("ACTA_DOCUMENT_PREFIX", "acta/"),
			PresignTTL:     getEnvAsDuration("ACTA_PRESIGN_TTL", time.Hour),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", ""),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LevelOr returns LOG_LEVEL, or def when it is not set. Each binary picks
// its own default.
func (a AppConfig) LevelOr(def string) string {
	if a.LogLevel == "" {
		return def
	}
	return a.LogLevel
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" && !c.Mock.Enabled {
		return fmt.Errorf("ACTA_API_BASE_URL is required")
	}

	err := validation.Errors{
		"ACTA_API_BASE_URL": validation.Validate(c.API.BaseURL, is.URL),
		"ACTA_API_TIMEOUT":  validation.Validate(c.API.Timeout, validation.Min(time.Millisecond)),
		"ACTA_TOKEN_CACHE":  validation.Validate(c.Auth.TokenCache, validation.In(TokenCacheFile, TokenCacheMemory, TokenCacheRedis)),
		"ACTA_REDIS_URL": validation.Validate(c.Auth.RedisURL,
			validation.When(c.Auth.TokenCache == TokenCacheRedis, validation.Required)),
		"ACTA_SKIP_AUTH": validation.Validate(c.Auth.SkipAuth,
			validation.When(c.App.Environment == EnvProduction,
				validation.NotIn(true).Error("must not be enabled in production"))),
		"ACTA_MOCK_MAX_DELAY": validation.Validate(c.Mock.MaxDelay,
			validation.Min(c.Mock.MinDelay).Error("must not be lower than ACTA_MOCK_MIN_DELAY")),
	}.Filter()
	if err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			return fmt.Errorf("invalid configuration: %w", errs)
		}
		return err
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		log.Printf("Warning: No values in %s, using default: %v", key, defaultValue)
		return defaultValue
	}
	return out
}
