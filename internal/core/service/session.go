package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const (
	DefaultSessionTTL        = time.Hour
	DefaultMaxSessionsPerChat = 50
)

// SessionStore keeps all live sessions in memory and writes through to a
// durable document store so sessions survive restarts. When the durable
// store is unreachable at startup the store degrades to memory-only.
type SessionStore struct {
	mutex      sync.Mutex
	chats      map[int64]map[string]*domain.Session
	durable    port.DocumentStore
	ttl        time.Duration
	maxPerChat int
	persisting bool
}

func NewSessionStore(ctx context.Context, durable port.DocumentStore, ttl time.Duration, maxPerChat int) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if maxPerChat <= 0 {
		maxPerChat = DefaultMaxSessionsPerChat
	}

	s := &SessionStore{
		chats:      make(map[int64]map[string]*domain.Session),
		durable:    durable,
		ttl:        ttl,
		maxPerChat: maxPerChat,
	}

	if durable == nil {
		log.Warn().Msg("no durable store configured, sessions are memory-only")
		return s
	}

	restored, err := durable.ListSessions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("durable store unreachable, sessions degrade to memory-only")
		return s
	}

	s.persisting = true
	for _, sess := range restored {
		chat, ok := s.chats[sess.ChatID]
		if !ok {
			chat = make(map[string]*domain.Session)
			s.chats[sess.ChatID] = chat
		}
		chat[sess.UserKey] = sess
	}

	log.Info().Int("sessions", len(restored)).Msg("restored sessions from durable store")

	return s
}

func (s *SessionStore) Get(ctx context.Context, chatID int64, userKey string) *domain.Session {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil
	}

	sess, ok := chat[userKey]
	if !ok {
		return nil
	}

	if sess.Expired(s.ttl, time.Now()) {
		log.Debug().Int64("chatId", chatID).Str("userKey", userKey).Str("kind", sess.Kind).
			Msg("evicting expired session")
		s.deleteLocked(ctx, chatID, userKey)
		return nil
	}

	sess.LastActivityAt = time.Now()
	s.persistLocked(ctx, sess)

	return sess
}

func (s *SessionStore) Set(ctx context.Context, chatID int64, userKey, kind string, payload json.RawMessage) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		chat = make(map[string]*domain.Session)
		s.chats[chatID] = chat
	}

	if _, exists := chat[userKey]; !exists && len(chat) >= s.maxPerChat {
		log.Warn().Int64("chatId", chatID).Int("max", s.maxPerChat).
			Msg("chat session capacity reached, refusing new session")
		return false
	}

	sess := &domain.Session{
		ChatID:         chatID,
		UserKey:        userKey,
		Kind:           kind,
		Payload:        payload,
		LastActivityAt: time.Now(),
	}
	chat[userKey] = sess
	s.persistLocked(ctx, sess)

	return true
}

func (s *SessionStore) Clear(ctx context.Context, chatID int64, userKey string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.deleteLocked(ctx, chatID, userKey)
}

func (s *SessionStore) ListChat(ctx context.Context, chatID int64) []*domain.Session {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil
	}

	now := time.Now()
	sessions := make([]*domain.Session, 0, len(chat))
	for key, sess := range chat {
		if sess.Expired(s.ttl, now) {
			s.deleteLocked(ctx, chatID, key)
			continue
		}
		sessions = append(sessions, sess)
	}

	return sessions
}

func (s *SessionStore) ChatIDs(ctx context.Context) []int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ids := make([]int64, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}

	return ids
}

func (s *SessionStore) deleteLocked(ctx context.Context, chatID int64, userKey string) {
	chat, ok := s.chats[chatID]
	if !ok {
		return
	}

	delete(chat, userKey)
	if len(chat) == 0 {
		delete(s.chats, chatID)
	}

	if s.persisting {
		if err := s.durable.DeleteSession(ctx, chatID, userKey); err != nil {
			log.Error().Err(err).Int64("chatId", chatID).Str("userKey", userKey).
				Msg("failed to delete session from durable store")
		}
	}
}

func (s *SessionStore) persistLocked(ctx context.Context, sess *domain.Session) {
	if !s.persisting {
		return
	}

	if err := s.durable.UpsertSession(ctx, sess); err != nil {
		log.Error().Err(err).Int64("chatId", sess.ChatID).Str("userKey", sess.UserKey).
			Msg("failed to persist session to durable store")
	}
}
