package commands

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/domain/games"
	"gamebot/internal/core/port"
)

var rpsChoices = []string{"rock", "paper", "scissors"}

// RPSCommand exposes rock-paper-scissors: an instant solo round against the
// bot, and the multiplayer flow on the game engine.
type RPSCommand struct {
	engine *games.Engine
	rules  *games.RPS
	sender port.Sender
}

func NewRPSCommand(engine *games.Engine, rules *games.RPS, sender port.Sender) *RPSCommand {
	return &RPSCommand{engine: engine, rules: rules, sender: sender}
}

func (r *RPSCommand) Execute(ctx context.Context, args []string, msg *domain.Message) error {
	if len(args) == 0 {
		return r.usage(ctx, msg)
	}

	switch strings.ToLower(args[0]) {
	case "start":
		return r.engine.Start(ctx, games.RPSName, msg)
	case "join":
		if len(args) < 2 {
			return r.usage(ctx, msg)
		}
		return r.engine.Join(ctx, games.RPSName, msg, strings.ToLower(args[1]))
	case "status":
		if len(args) < 2 {
			return r.usage(ctx, msg)
		}
		return r.engine.Status(ctx, games.RPSName, msg, strings.ToLower(args[1]))
	case "leave":
		return r.engine.Leave(ctx, games.RPSName, msg)
	case "stop":
		return r.engine.Stop(ctx, games.RPSName, msg)
	}

	if r.rules.ValidMove(args[0]) {
		return r.play(ctx, msg, args[0])
	}

	return r.usage(ctx, msg)
}

// play routes a gesture either into the sender's multiplayer game (private
// link record) or resolves an instant solo round.
func (r *RPSCommand) play(ctx context.Context, msg *domain.Message, choice string) error {
	if !msg.IsGroup {
		if handled := r.engine.HandleBare(ctx, &domain.Message{
			ID:       msg.ID,
			ChatID:   msg.ChatID,
			UserID:   msg.UserID,
			Username: msg.Username,
			Text:     choice,
		}); handled {
			return nil
		}
	}

	botChoice := rpsChoices[rand.Intn(len(rpsChoices))]
	outcome, ok := games.PlaySolo(choice, botChoice)
	if !ok {
		return r.usage(ctx, msg)
	}

	_, err := r.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, outcome)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}

func (r *RPSCommand) usage(ctx context.Context, msg *domain.Message) error {
	text := "rps <rock|paper|scissors> — instant round against me\n" +
		"rps start — host a two-player game in a group\n" +
		"rps join <id> — join a hosted game, then send me your move in private\n" +
		"rps status <id> / rps leave / rps stop"
	_, err := r.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, text)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
