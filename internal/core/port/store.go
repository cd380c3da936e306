package port

import (
	"context"
	"encoding/json"
	"gamebot/internal/core/domain"
)

// DocumentStore is the durable backing for sessions. Implementations only
// need composite-key upsert/find/delete semantics; payloads are opaque.
type DocumentStore interface {
	UpsertSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, chatID int64, userKey string) error
	ListSessions(ctx context.Context) ([]*domain.Session, error)
}

// SessionStore is the shared per-(chat, participant) session state.
type SessionStore interface {
	// Get returns the live session for the key, or nil if absent or expired.
	// An expired session encountered here is deleted as a side effect.
	Get(ctx context.Context, chatID int64, userKey string) *domain.Session
	// Set writes a session, refreshing its activity timestamp. It returns
	// false without writing when the chat is at its distinct-participant
	// capacity and the key is new; overwriting an existing key always
	// succeeds.
	Set(ctx context.Context, chatID int64, userKey, kind string, payload json.RawMessage) bool
	// Clear deletes the session for the key. Deleting an absent key is a no-op.
	Clear(ctx context.Context, chatID int64, userKey string)
	// ListChat returns all non-expired sessions in a chat, lazily evicting
	// expired ones it encounters.
	ListChat(ctx context.Context, chatID int64) []*domain.Session
	// ChatIDs returns every chat currently holding at least one session.
	ChatIDs(ctx context.Context) []int64
}

type Leaderboard interface {
	// UserStat returns the accumulated score for a player in one game, or
	// (0, false) when the player has never scored.
	UserStat(ctx context.Context, userKey, game string) (int, bool, error)
	// UpdateUserStat adds delta to a player's score, creating the row on
	// first use. username is stored for display and may be empty.
	UpdateUserStat(ctx context.Context, userKey, username, game string, delta int) error
	// TopN returns the highest-scoring players for a game, best first.
	TopN(ctx context.Context, game string, n int) ([]domain.RankedStat, error)
}

type UsageStats interface {
	Increment(ctx context.Context, command, userKey string) error
	All(ctx context.Context) ([]domain.UsageCount, error)
}
