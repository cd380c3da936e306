package games

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Recover scans all persisted sessions after a restart. Master records are
// authoritative: duplicate copies of one game id are reduced to the copy with
// the longer move history, records with no players or no game state are
// dropped, and link records whose master is gone or no longer lists the
// player are deleted. Derived display state (the masked word) is never read
// from disk, so nothing needs recomputing here.
func (e *Engine) Recover(ctx context.Context) {
	type masterRef struct {
		chatID  int64
		userKey string
		history int
	}

	best := make(map[string]masterRef)
	recovered, dropped := 0, 0

	chatIDs := e.sessions.ChatIDs(ctx)
	for _, chatID := range chatIDs {
		for _, sess := range e.sessions.ListChat(ctx, chatID) {
			if !e.IsGameKind(sess.Kind) || sess.UserKey == "" {
				continue
			}

			var m Master
			if err := json.Unmarshal(sess.Payload, &m); err != nil {
				log.Warn().Err(err).Int64("chatId", chatID).Str("userKey", sess.UserKey).
					Msg("dropping unreadable game record")
				e.sessions.Clear(ctx, chatID, sess.UserKey)
				dropped++
				continue
			}

			if m.GameID == "" {
				// solo session, nothing to reconcile
				continue
			}

			if len(m.Players) == 0 {
				e.sessions.Clear(ctx, chatID, sess.UserKey)
				dropped++
				continue
			}

			history := len(m.Guessed) + len(m.Moves)
			ref := masterRef{chatID: chatID, userKey: sess.UserKey, history: history}

			prev, seen := best[m.GameID]
			if !seen {
				best[m.GameID] = ref
				recovered++
				continue
			}

			// two copies of the same game survived a crash; keep the one
			// with the longer history
			loser := ref
			if history > prev.history {
				best[m.GameID] = ref
				loser = prev
			}
			e.sessions.Clear(ctx, loser.chatID, loser.userKey)
			dropped++
		}
	}

	for _, chatID := range chatIDs {
		for _, sess := range e.sessions.ListChat(ctx, chatID) {
			if !e.IsLinkKind(sess.Kind) {
				continue
			}

			var link Link
			if err := json.Unmarshal(sess.Payload, &link); err != nil {
				e.sessions.Clear(ctx, chatID, sess.UserKey)
				dropped++
				continue
			}

			m := e.loadMaster(ctx, link.GroupChatID, link.Game, link.GameID)
			if m == nil || !m.HasPlayer(sess.UserKey) {
				log.Info().Str("gameId", link.GameID).Str("userKey", sess.UserKey).
					Msg("dropping orphaned link record")
				e.sessions.Clear(ctx, chatID, sess.UserKey)
				dropped++
			}
		}
	}

	log.Info().Int("games", recovered).Int("dropped", dropped).Msg("game session recovery complete")
}
