package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// tokenTable maps bearer tokens to user ids. Tokens live for the lifetime of
// the process; a dev server restart logs everyone out.
type tokenTable struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newTokenTable() *tokenTable {
	return &tokenTable{tokens: make(map[string]string)}
}

// Issue mints a new token for the user.
func (t *tokenTable) Issue(userID string) string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)

	t.mu.Lock()
	t.tokens[token] = userID
	t.mu.Unlock()
	return token
}

// Lookup resolves a token to the user id it was issued for.
func (t *tokenTable) Lookup(token string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	userID, ok := t.tokens[token]
	return userID, ok
}

// Revoke removes a token.
func (t *tokenTable) Revoke(token string) {
	t.mu.Lock()
	delete(t.tokens, token)
	t.mu.Unlock()
}
