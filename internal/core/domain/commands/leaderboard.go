package commands

import (
	"context"
	"fmt"
	"strings"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"
)

const leaderboardSize = 10

// LeaderboardCommand shows the top players of a game, or the caller's own
// score with "leaderboard <game> me".
type LeaderboardCommand struct {
	leaderboard port.Leaderboard
	sender      port.Sender
}

func NewLeaderboardCommand(leaderboard port.Leaderboard, sender port.Sender) *LeaderboardCommand {
	return &LeaderboardCommand{leaderboard: leaderboard, sender: sender}
}

func (l *LeaderboardCommand) Execute(ctx context.Context, args []string, msg *domain.Message) error {
	if len(args) == 0 {
		return l.reply(ctx, msg, "usage: leaderboard <game> [me]")
	}

	game := strings.ToLower(args[0])

	if len(args) > 1 && strings.EqualFold(args[1], "me") {
		score, found, err := l.leaderboard.UserStat(ctx, msg.UserKey(), game)
		if err != nil {
			return fmt.Errorf("failed to load stat: %w", err)
		}
		if !found {
			return l.reply(ctx, msg, fmt.Sprintf("you have no %s score yet", game))
		}
		return l.reply(ctx, msg, fmt.Sprintf("your %s score: %d", game, score))
	}

	top, err := l.leaderboard.TopN(ctx, game, leaderboardSize)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if len(top) == 0 {
		return l.reply(ctx, msg, fmt.Sprintf("nobody has scored in %s yet", game))
	}

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Top %s players:\n", game)
	for i, stat := range top {
		name := stat.Username
		if name == "" {
			name = stat.UserKey
		}
		fmt.Fprintf(sb, "%d. %s: %d\n", i+1, name, stat.Score)
	}

	return l.reply(ctx, msg, strings.TrimRight(sb.String(), "\n"))
}

func (l *LeaderboardCommand) reply(ctx context.Context, msg *domain.Message, text string) error {
	if _, err := l.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, text); err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
