package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"gamebot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionKey struct {
	chatID  int64
	userKey string
}

type MockDocumentStore struct {
	mutex    sync.Mutex
	records  map[sessionKey]*domain.Session
	listErr  error
	writeErr error
}

func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{records: map[sessionKey]*domain.Session{}}
}

func (m *MockDocumentStore) UpsertSession(_ context.Context, sess *domain.Session) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	clone := *sess
	m.records[sessionKey{chatID: sess.ChatID, userKey: sess.UserKey}] = &clone
	return nil
}

func (m *MockDocumentStore) DeleteSession(_ context.Context, chatID int64, userKey string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.records, sessionKey{chatID: chatID, userKey: userKey})
	return nil
}

func (m *MockDocumentStore) ListSessions(_ context.Context) ([]*domain.Session, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.Session
	for _, sess := range m.records {
		clone := *sess
		out = append(out, &clone)
	}
	return out, nil
}

func TestSessionOverwriteKeepsOneSessionPerKey(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(ctx, NewMockDocumentStore(), time.Hour, 10)

	require.True(t, s.Set(ctx, 1, "u1", "hangman", json.RawMessage(`{}`)))
	require.True(t, s.Set(ctx, 1, "u1", "rps", json.RawMessage(`{}`)))

	sess := s.Get(ctx, 1, "u1")
	require.NotNil(t, sess)
	assert.Equal(t, "rps", sess.Kind)
	assert.Len(t, s.ListChat(ctx, 1), 1)
}

func TestSessionCapacityRefusesNewKeysOnly(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(ctx, NewMockDocumentStore(), time.Hour, 2)

	require.True(t, s.Set(ctx, 1, "u1", "hangman", nil))
	require.True(t, s.Set(ctx, 1, "u2", "hangman", nil))

	assert.False(t, s.Set(ctx, 1, "u3", "hangman", nil))
	assert.Nil(t, s.Get(ctx, 1, "u3"))

	// overwriting an existing key is always allowed at capacity
	assert.True(t, s.Set(ctx, 1, "u2", "rps", nil))

	// other chats are unaffected
	assert.True(t, s.Set(ctx, 2, "u3", "hangman", nil))
}

func TestSessionExpiryEvictsLazily(t *testing.T) {
	ctx := context.Background()
	durable := NewMockDocumentStore()
	s := NewSessionStore(ctx, durable, 10*time.Millisecond, 10)

	require.True(t, s.Set(ctx, 1, "u1", "hangman", nil))
	time.Sleep(20 * time.Millisecond)

	assert.Nil(t, s.Get(ctx, 1, "u1"))
	assert.Empty(t, durable.records)
}

func TestSessionGetRefreshesActivity(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(ctx, NewMockDocumentStore(), 30*time.Millisecond, 10)

	require.True(t, s.Set(ctx, 1, "u1", "hangman", nil))

	for range 4 {
		time.Sleep(15 * time.Millisecond)
		require.NotNil(t, s.Get(ctx, 1, "u1"))
	}
}

func TestSessionClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(ctx, NewMockDocumentStore(), time.Hour, 10)

	require.True(t, s.Set(ctx, 1, "u1", "hangman", nil))
	s.Clear(ctx, 1, "u1")
	s.Clear(ctx, 1, "u1")

	assert.Nil(t, s.Get(ctx, 1, "u1"))
	assert.Empty(t, s.ChatIDs(ctx))
}

func TestSessionRestoreFromDurableStore(t *testing.T) {
	ctx := context.Background()
	durable := NewMockDocumentStore()
	first := NewSessionStore(ctx, durable, time.Hour, 10)
	require.True(t, first.Set(ctx, 1, "u1", "hangman", json.RawMessage(`{"word":"KUCING"}`)))
	require.True(t, first.Set(ctx, 2, "u2", "rps", nil))

	second := NewSessionStore(ctx, durable, time.Hour, 10)
	sess := second.Get(ctx, 1, "u1")
	require.NotNil(t, sess)
	assert.Equal(t, "hangman", sess.Kind)
	assert.JSONEq(t, `{"word":"KUCING"}`, string(sess.Payload))
	assert.ElementsMatch(t, []int64{1, 2}, second.ChatIDs(ctx))
}

func TestSessionDegradesToMemoryOnly(t *testing.T) {
	ctx := context.Background()
	durable := NewMockDocumentStore()
	durable.listErr = errors.New("connection refused")

	s := NewSessionStore(ctx, durable, time.Hour, 10)
	require.True(t, s.Set(ctx, 1, "u1", "hangman", nil))
	require.NotNil(t, s.Get(ctx, 1, "u1"))

	// no writes reach the unreachable store
	assert.Empty(t, durable.records)
}
