package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Simplici0/quickestimate/internal/store"
)

// DefaultSessionTTL applies when no positive session lifetime is configured.
const DefaultSessionTTL = 12 * time.Hour

const tokenBytes = 32

// Manager issues opaque admin session tokens. Only the SHA-256 hash of a
// token is persisted.
type Manager struct {
	store  store.SessionStore
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// NewManager returns a Manager whose sessions last ttl.
func NewManager(st store.SessionStore, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{store: st, ttl: ttl, now: time.Now, random: rand.Reader}
}

// TTL is the lifetime of newly issued sessions.
func (m *Manager) TTL() time.Duration { return m.ttl }

// HashToken returns the hex SHA-256 digest stored for token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issue creates a session and returns the raw token for the cookie.
func (m *Manager) Issue(ctx context.Context) (string, time.Time, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(m.random, buf); err != nil {
		return "", time.Time{}, eris.Wrap(err, "auth: generate session token")
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	expiresAt := m.now().Add(m.ttl)

	if _, err := m.store.PruneExpiredSessions(ctx); err != nil {
		return "", time.Time{}, eris.Wrap(err, "auth: prune sessions")
	}
	if err := m.store.CreateSession(ctx, HashToken(token), expiresAt); err != nil {
		return "", time.Time{}, eris.Wrap(err, "auth: create session")
	}
	return token, expiresAt, nil
}

// Validate reports whether token names a live session.
func (m *Manager) Validate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	if _, err := m.store.PruneExpiredSessions(ctx); err != nil {
		return false, eris.Wrap(err, "auth: prune sessions")
	}
	ok, err := m.store.IsSessionValid(ctx, HashToken(token))
	if err != nil {
		return false, eris.Wrap(err, "auth: validate session")
	}
	return ok, nil
}

// Revoke deletes the session for token. Unknown or empty tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return eris.Wrap(m.store.DeleteSession(ctx, HashToken(token)), "auth: revoke session")
}

// Prune removes expired sessions and returns how many were deleted.
func (m *Manager) Prune(ctx context.Context) (int64, error) {
	n, err := m.store.PruneExpiredSessions(ctx)
	return n, eris.Wrap(err, "auth: prune sessions")
}
