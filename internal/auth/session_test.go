package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySessions is an in-memory session store driven by a test clock.
type memorySessions struct {
	now      func() time.Time
	sessions map[string]time.Time
	failNext error
}

func newMemorySessions(now func() time.Time) *memorySessions {
	return &memorySessions{now: now, sessions: map[string]time.Time{}}
}

func (m *memorySessions) CreateSession(_ context.Context, hash string, expiresAt time.Time) error {
	if m.failNext != nil {
		return m.failNext
	}
	m.sessions[hash] = expiresAt
	return nil
}

func (m *memorySessions) DeleteSession(_ context.Context, hash string) error {
	delete(m.sessions, hash)
	return nil
}

func (m *memorySessions) IsSessionValid(_ context.Context, hash string) (bool, error) {
	exp, ok := m.sessions[hash]
	return ok && exp.After(m.now()), nil
}

func (m *memorySessions) PruneExpiredSessions(context.Context) (int64, error) {
	var n int64
	for hash, exp := range m.sessions {
		if !exp.After(m.now()) {
			delete(m.sessions, hash)
			n++
		}
	}
	return n, nil
}

func newTestManager(ttl time.Duration) (*Manager, *memorySessions, func(time.Duration)) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	sessions := newMemorySessions(clock)
	m := NewManager(sessions, ttl)
	m.now = clock
	return m, sessions, func(d time.Duration) { now = now.Add(d) }
}

func TestManager_IssueStoresOnlyHash(t *testing.T) {
	m, sessions, _ := newTestManager(12 * time.Hour)

	token, expiresAt, err := m.Issue(context.Background())
	require.NoError(t, err)

	assert.Len(t, token, 43)
	assert.NotContains(t, token, "=")
	assert.Equal(t, time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC), expiresAt)
	require.Len(t, sessions.sessions, 1)
	_, stored := sessions.sessions[HashToken(token)]
	assert.True(t, stored)
	_, raw := sessions.sessions[token]
	assert.False(t, raw)
}

func TestManager_ValidateAndExpire(t *testing.T) {
	m, _, advance := newTestManager(time.Hour)
	ctx := context.Background()

	token, _, err := m.Issue(ctx)
	require.NoError(t, err)

	ok, err := m.Validate(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	advance(time.Hour)

	ok, err = m.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_RejectsUnknownAndEmptyTokens(t *testing.T) {
	m, _, _ := newTestManager(time.Hour)
	ctx := context.Background()

	ok, err := m.Validate(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Validate(ctx, "forged")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_Revoke(t *testing.T) {
	m, sessions, _ := newTestManager(time.Hour)
	ctx := context.Background()

	token, _, err := m.Issue(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, token))
	require.NoError(t, m.Revoke(ctx, ""))

	assert.Empty(t, sessions.sessions)
	ok, err := m.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_IssuePrunesExpired(t *testing.T) {
	m, sessions, advance := newTestManager(time.Hour)
	ctx := context.Background()

	_, _, err := m.Issue(ctx)
	require.NoError(t, err)
	advance(2 * time.Hour)
	_, _, err = m.Issue(ctx)
	require.NoError(t, err)

	assert.Len(t, sessions.sessions, 1)
}

func TestManager_IssueWrapsStoreError(t *testing.T) {
	m, sessions, _ := newTestManager(time.Hour)
	sessions.failNext = errors.New("database is locked")

	_, _, err := m.Issue(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "create session"))
}

func TestNewManager_DefaultsTTL(t *testing.T) {
	assert.Equal(t, DefaultSessionTTL, NewManager(nil, 0).TTL())
	assert.Equal(t, DefaultSessionTTL, NewManager(nil, -time.Hour).TTL())
	assert.Equal(t, 2*time.Hour, NewManager(nil, 2*time.Hour).TTL())
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashToken(""))
	assert.Len(t, HashToken("token"), 64)
}
