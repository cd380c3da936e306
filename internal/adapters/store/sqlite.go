// Package store provides the durable SQLite backing for sessions, the
// leaderboard and usage statistics.
package store

import (
	"context"
	"database/sql"
	"time"

	"gamebot/internal/core/domain"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS session (
	chat_id INTEGER NOT NULL,
	user_key TEXT NOT NULL,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	last_activity_at INTEGER NOT NULL,
	PRIMARY KEY (chat_id, user_key)
);
CREATE TABLE IF NOT EXISTS leaderboard (
	user_key TEXT NOT NULL,
	game TEXT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	score INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_key, game)
);
CREATE TABLE IF NOT EXISTS usage_stat (
	command TEXT NOT NULL,
	user_key TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (command, user_key)
);
`

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (chat_id, user_key, kind, payload, last_activity_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, user_key) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload,
			last_activity_at = excluded.last_activity_at`,
		sess.ChatID, sess.UserKey, sess.Kind, string(sess.Payload), sess.LastActivityAt.UnixMilli())

	return errors.Wrap(err, "failed to upsert session")
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, chatID int64, userKey string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session WHERE chat_id = ? AND user_key = ?`, chatID, userKey)

	return errors.Wrap(err, "failed to delete session")
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, user_key, kind, payload, last_activity_at FROM session`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var sess domain.Session
		var payload string
		var lastActivity int64
		if err := rows.Scan(&sess.ChatID, &sess.UserKey, &sess.Kind, &payload, &lastActivity); err != nil {
			return nil, errors.Wrap(err, "failed to scan session row")
		}
		sess.Payload = []byte(payload)
		sess.LastActivityAt = time.UnixMilli(lastActivity)
		sessions = append(sessions, &sess)
	}

	return sessions, errors.Wrap(rows.Err(), "failed to iterate session rows")
}

func (s *SQLiteStore) UserStat(ctx context.Context, userKey, game string) (int, bool, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM leaderboard WHERE user_key = ? AND game = ?`, userKey, game).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to load user stat")
	}

	return score, true, nil
}

func (s *SQLiteStore) UpdateUserStat(ctx context.Context, userKey, username, game string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard (user_key, game, username, score)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_key, game) DO UPDATE SET
			score = score + excluded.score,
			username = CASE WHEN excluded.username != '' THEN excluded.username ELSE username END`,
		userKey, game, username, delta)

	return errors.Wrap(err, "failed to update user stat")
}

func (s *SQLiteStore) TopN(ctx context.Context, game string, n int) ([]domain.RankedStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_key, username, score FROM leaderboard
		WHERE game = ? ORDER BY score DESC LIMIT ?`, game, n)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query leaderboard")
	}
	defer rows.Close()

	var stats []domain.RankedStat
	for rows.Next() {
		stat := domain.RankedStat{Game: game}
		if err := rows.Scan(&stat.UserKey, &stat.Username, &stat.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan leaderboard row")
		}
		stats = append(stats, stat)
	}

	return stats, errors.Wrap(rows.Err(), "failed to iterate leaderboard rows")
}

func (s *SQLiteStore) Increment(ctx context.Context, command, userKey string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_stat (command, user_key, count) VALUES (?, ?, 1)
		ON CONFLICT (command, user_key) DO UPDATE SET count = count + 1`,
		command, userKey)

	return errors.Wrap(err, "failed to increment usage stat")
}

func (s *SQLiteStore) All(ctx context.Context) ([]domain.UsageCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT command, user_key, count FROM usage_stat`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query usage stats")
	}
	defer rows.Close()

	var counts []domain.UsageCount
	for rows.Next() {
		var c domain.UsageCount
		if err := rows.Scan(&c.Command, &c.UserKey, &c.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan usage stat row")
		}
		counts = append(counts, c)
	}

	return counts, errors.Wrap(rows.Err(), "failed to iterate usage stat rows")
}
