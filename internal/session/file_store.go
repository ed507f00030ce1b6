package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the session in a JSON file readable only by the user, so
// a login outlives the process that made it.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore stores the session of profile under dir.
func NewFileStore(dir, profile string) *FileStore {
	if profile == "" {
		profile = "default"
	}
	return &FileStore{
		path: filepath.Join(dir, "session-"+profile+".json"),
		now:  time.Now,
	}
}

// DefaultSessionDir is ~/.config/acta (or the platform equivalent).
func DefaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "acta")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".acta")
	}
	return ".acta"
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(_ context.Context) (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Tokens{}, ErrNoSession
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to read session: %w", err)
	}

	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return Tokens{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if t.Expired(s.now()) {
		_ = s.removeLocked()
		return Tokens{}, ErrExpired
	}
	return t, nil
}

func (s *FileStore) Set(_ context.Context, t Tokens) error {
	if t.Expired(s.now()) {
		return ErrExpired
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	// write then rename so a concurrent reader never sees half a file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.removeLocked(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *FileStore) removeLocked() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
