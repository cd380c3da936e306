package commands

import (
	"context"
	"fmt"
	"strings"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/domain/games"
	"gamebot/internal/core/port"
)

// HangmanCommand exposes the word-guessing game: solo play against the bot,
// and the multiplayer start/join/status/leave/stop flow on the game engine.
type HangmanCommand struct {
	engine *games.Engine
	rules  *games.Hangman
	sender port.Sender
}

func NewHangmanCommand(engine *games.Engine, rules *games.Hangman, sender port.Sender) *HangmanCommand {
	return &HangmanCommand{engine: engine, rules: rules, sender: sender}
}

func (h *HangmanCommand) Execute(ctx context.Context, args []string, msg *domain.Message) error {
	if len(args) == 0 {
		return h.usage(ctx, msg)
	}

	switch strings.ToLower(args[0]) {
	case "play":
		return h.engine.StartSolo(ctx, h.rules, msg)
	case "start":
		return h.engine.Start(ctx, games.HangmanName, msg)
	case "join":
		if len(args) < 2 {
			return h.usage(ctx, msg)
		}
		return h.engine.Join(ctx, games.HangmanName, msg, strings.ToLower(args[1]))
	case "status":
		if len(args) < 2 {
			return h.usage(ctx, msg)
		}
		return h.engine.Status(ctx, games.HangmanName, msg, strings.ToLower(args[1]))
	case "leave":
		return h.engine.Leave(ctx, games.HangmanName, msg)
	case "stop":
		return h.engine.Stop(ctx, games.HangmanName, msg)
	case "guess":
		if len(args) < 2 {
			return h.usage(ctx, msg)
		}
		return h.guess(ctx, msg, args[1])
	}

	if h.rules.ValidMove(args[0]) {
		return h.guess(ctx, msg, args[0])
	}

	return h.usage(ctx, msg)
}

// guess routes a letter to whichever game the sender is in: a private link
// record means a multiplayer move, otherwise the solo game in this chat.
func (h *HangmanCommand) guess(ctx context.Context, msg *domain.Message, letter string) error {
	if !msg.IsGroup {
		if handled := h.engine.HandleBare(ctx, &domain.Message{
			ID:       msg.ID,
			ChatID:   msg.ChatID,
			UserID:   msg.UserID,
			Username: msg.Username,
			Text:     letter,
		}); handled {
			return nil
		}
	}

	return h.engine.SoloGuess(ctx, msg, letter)
}

func (h *HangmanCommand) usage(ctx context.Context, msg *domain.Message) error {
	text := "hangman play — solo game against me\n" +
		"hangman start — host a multiplayer game in a group\n" +
		"hangman join <id> — join a hosted game\n" +
		"hangman status <id> — show a game's state\n" +
		"hangman leave / hangman stop — leave, or end the game as host\n" +
		"Guess by sending a single letter."
	_, err := h.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, text)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
