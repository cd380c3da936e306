package games

import (
	"context"
	"strings"

	"gamebot/internal/core/domain"

	"github.com/rs/zerolog/log"
)

// HandleBare routes a message without a command prefix to a running game, so
// players can answer with just a letter or a gesture. It handles the message
// only when the sender holds a matching session in this chat: a solo
// word-guessing session accepts a bare letter, a link record accepts the
// linked game's moves. Everything else is left for the dispatcher to ignore.
func (e *Engine) HandleBare(ctx context.Context, msg *domain.Message) bool {
	move := strings.TrimSpace(msg.Text)
	if move == "" || strings.ContainsRune(move, ' ') {
		return false
	}

	sess := e.sessions.Get(ctx, msg.ChatID, msg.UserKey())
	if sess == nil {
		return false
	}

	switch {
	case sess.Kind == HangmanName:
		// a game-kind session under the player's own key is a solo game;
		// masters live under the game id instead
		rules, _ := e.rules[HangmanName].(*Hangman)
		if rules == nil || !rules.ValidMove(move) {
			return false
		}
		e.soloGuessLogged(ctx, msg, move)
		return true
	case e.IsLinkKind(sess.Kind):
		game, _ := e.Family(sess.Kind)
		rules, ok := e.rules[game]
		if !ok || !rules.ValidMove(move) {
			return false
		}
		if err := e.Move(ctx, msg, move); err != nil {
			logMoveError(err, msg)
		}
		return true
	}

	return false
}

func (e *Engine) soloGuessLogged(ctx context.Context, msg *domain.Message, move string) {
	if err := e.SoloGuess(ctx, msg, move); err != nil {
		logMoveError(err, msg)
	}
}

func logMoveError(err error, msg *domain.Message) {
	log.Error().Err(err).Int64("chatId", msg.ChatID).Int64("userId", msg.UserID).
		Msg("failed to handle game move")
}
