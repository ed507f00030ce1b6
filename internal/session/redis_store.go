package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "acta:session:" // acta:session:{profile}

// RedisStore shares one session between CLI invocations and the dashboard.
// The key expires together with the ID token.
type RedisStore struct {
	client  *redis.Client
	profile string
	now     func() time.Time
}

func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{client: client, profile: profile, now: time.Now}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (s *RedisStore) Get(ctx context.Context) (Tokens, error) {
	data, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return Tokens{}, ErrNoSession
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to get session: %w", err)
	}

	var t Tokens
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return Tokens{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if t.Expired(s.now()) {
		_ = s.Clear(ctx)
		return Tokens{}, ErrExpired
	}
	return t, nil
}

func (s *RedisStore) Set(ctx context.Context, t Tokens) error {
	now := s.now()
	if t.Expired(now) {
		return ErrExpired
	}

	var ttl time.Duration
	if !t.ExpiresAt.IsZero() {
		ttl = t.ExpiresAt.Sub(now)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, s.profile)
}
