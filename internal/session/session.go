// Package session holds the process-wide bearer token used by every outgoing
// API call. The token has an explicit lifecycle: set on login, cleared on
// logout or on the first unauthorized response, whichever comes first.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Session is the shared token holder. It is safe for concurrent use; the
// client reads the token on every request and may clear it from a response
// middleware while other requests are in flight.
type Session struct {
	mu      sync.Mutex
	path    string
	token   string
	cleared bool
}

// New returns a session backed by the given token file. A missing file means
// "not logged in"; that is not an error.
func New(path string) (*Session, error) {
	s := &Session{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

// InMemory returns a session that never touches disk. Used by tests and by
// callers that inject a fixed token.
func InMemory(token string) *Session {
	return &Session{token: token}
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken stores a new token and persists it, reviving a cleared session.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.cleared = false
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear wipes the token. It reports whether this call performed the wipe:
// concurrent unauthorized responses race to clear, and only the winner should
// trigger the login-boundary redirect.
func (s *Session) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleared || s.token == "" {
		return false
	}
	s.token = ""
	s.cleared = true
	if s.path != "" {
		_ = os.Remove(s.path)
	}
	return true
}
