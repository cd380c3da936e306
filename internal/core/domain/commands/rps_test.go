package commands

import (
	"context"
	"testing"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/domain/games"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRPSFixture() (*RPSCommand, *MockSender, *games.Engine) {
	sender := &MockSender{}
	rules := games.NewRPS()
	engine := games.NewEngine(newMemorySessions(), &MockLeaderboard{}, sender,
		rules, games.NewHangman(&staticWords{word: "KUCING"}))

	return NewRPSCommand(engine, rules, sender), sender, engine
}

func TestRPSCommandUsage(t *testing.T) {
	cmd, sender, _ := newRPSFixture()
	msg := &domain.Message{ID: 1, ChatID: 7, UserID: 7}

	require.NoError(t, cmd.Execute(context.Background(), nil, msg))
	assert.Contains(t, sender.Last(), "rock|paper|scissors")

	require.NoError(t, cmd.Execute(context.Background(), []string{"lizard"}, msg))
	assert.Contains(t, sender.Last(), "rock|paper|scissors")
}

func TestRPSCommandSoloRound(t *testing.T) {
	cmd, sender, _ := newRPSFixture()

	err := cmd.Execute(context.Background(), []string{"rock"},
		&domain.Message{ID: 1, ChatID: 7, UserID: 7, Username: "@carol"})

	require.NoError(t, err)
	assert.Contains(t, sender.Last(), "I played")
}

func TestRPSCommandChoiceRoutesToLinkedGame(t *testing.T) {
	cmd, sender, engine := newRPSFixture()
	ctx := context.Background()

	group := &domain.Message{ID: 1, ChatID: 500, UserID: 1, Username: "@alice", IsGroup: true}
	require.NoError(t, engine.Start(ctx, games.RPSName, group))

	err := cmd.Execute(ctx, []string{"rock"}, &domain.Message{ID: 2, ChatID: 1, UserID: 1, Username: "@alice"})

	require.NoError(t, err)
	assert.Contains(t, sender.Last(), "waiting")
	assert.NotContains(t, sender.Last(), "I played")
}

func TestRPSCommandStartRequiresGroup(t *testing.T) {
	cmd, sender, _ := newRPSFixture()

	err := cmd.Execute(context.Background(), []string{"start"},
		&domain.Message{ID: 1, ChatID: 7, UserID: 7, Username: "@carol"})

	require.NoError(t, err)
	assert.Contains(t, sender.Last(), "group chat")
}
