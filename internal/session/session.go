// Package session handles the persisted login session: the bearer token and
// the current user, stored in ~/.config/cohort/session.toml. The session has
// an explicit lifecycle: saved at login or registration, cleared at logout,
// and read by the API client at call time.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/cohortlab/cohort/internal/api"
)

// Session is the persisted login state.
type Session struct {
	Token string   `toml:"token"`
	User  api.User `toml:"user"`
}

// Store holds the session in memory and mirrors it to disk. The zero path
// uses the default location. Store implements api.TokenSource.
type Store struct {
	path string

	mu      sync.RWMutex
	current Session
}

const defaultSessionPath = "~/.config/cohort/session.toml"

// DefaultPath returns the default session file path.
func DefaultPath() string {
	return defaultSessionPath
}

// Open loads the session file at path, falling back to an empty (logged-out)
// session when the file is missing or unreadable.
func Open(path string) *Store {
	s := &Store{path: path}

	resolved, err := s.resolvePath()
	if err != nil {
		return s
	}

	file, err := os.Open(resolved)
	if err != nil {
		return s // Missing file means logged out
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return s
	}

	var sess Session
	if err := toml.Unmarshal(bytes, &sess); err != nil {
		return s // Corrupt session file degrades to logged out
	}

	s.current = sess
	return s
}

// Token returns the current bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// Current returns the session and whether a user is logged in.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current.Token != ""
}

// Save replaces the session in memory and on disk. The file is written with
// owner-only permissions because it contains the bearer token.
func (s *Store) Save(sess Session) error {
	resolved, err := s.resolvePath()
	if err != nil {
		return fmt.Errorf("resolve session path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	bytes, err := toml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return nil
}

// Clear logs out: the in-memory session is zeroed and the file removed.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.current = Session{}
	s.mu.Unlock()

	resolved, err := s.resolvePath()
	if err != nil {
		return fmt.Errorf("resolve session path: %w", err)
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Expired reports whether the stored token carries an exp claim in the past.
// The claim is read without signature verification; verification is the
// server's job. Tokens without an exp claim are treated as unexpired.
func (s *Store) Expired(now time.Time) bool {
	token := s.Token()
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

func (s *Store) resolvePath() (string, error) {
	if strings.TrimSpace(s.path) == "" {
		return expandPath(defaultSessionPath)
	}
	return expandPath(s.path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
