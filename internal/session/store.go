package session

import (
	"context"
	"sync"
	"time"
)

// Store is the only accessor for the cached identity token. Values are
// replaced wholesale; nothing updates a cached Tokens in place.
type Store interface {
	// Get returns ErrNoSession when nothing is cached and ErrExpired when
	// the cached tokens are past their expiry (they are discarded).
	Get(ctx context.Context) (Tokens, error)
	Set(ctx context.Context, t Tokens) error
	Clear(ctx context.Context) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	tokens *Tokens
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context) (Tokens, error) {
	s.mu.RLock()
	t := s.tokens
	s.mu.RUnlock()

	if t == nil {
		return Tokens{}, ErrNoSession
	}
	if t.Expired(s.now()) {
		s.mu.Lock()
		if s.tokens == t {
			s.tokens = nil
		}
		s.mu.Unlock()
		return Tokens{}, ErrExpired
	}
	return *t, nil
}

func (s *MemoryStore) Set(_ context.Context, t Tokens) error {
	if t.Expired(s.now()) {
		return ErrExpired
	}
	s.mu.Lock()
	s.tokens = &t
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.tokens = nil
	s.mu.Unlock()
	return nil
}

// IDToken is a convenience for callers that only need the bearer value.
func IDToken(ctx context.Context, s Store) (string, bool) {
	if s == nil {
		return "", false
	}
	t, err := s.Get(ctx)
	if err != nil {
		return "", false
	}
	return t.IDToken, true
}
