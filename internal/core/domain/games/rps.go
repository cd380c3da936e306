package games

import (
	"context"
	"fmt"
	"strings"

	"gamebot/internal/core/domain"
)

const RPSName = "rps"

var rpsBeats = map[string]string{
	"rock":     "scissors",
	"paper":    "rock",
	"scissors": "paper",
}

// RPS implements the rock-paper-scissors rules for exactly two players.
// Both submit their move privately; once both are in, the outcome is
// announced in the group and the game torn down.
type RPS struct{}

func NewRPS() *RPS { return &RPS{} }

func (r *RPS) Name() string { return RPSName }

func (r *RPS) RequiredPlayers() int { return 2 }

func (r *RPS) Init(_ context.Context, m *Master) error {
	m.Moves = make(map[string]string)
	return nil
}

func (r *RPS) ValidMove(move string) bool {
	_, ok := rpsBeats[strings.ToLower(move)]
	return ok
}

func (r *RPS) ApplyMove(m *Master, userKey, move string) (*MoveResult, error) {
	choice := strings.ToLower(move)
	if !r.ValidMove(choice) {
		return nil, fmt.Errorf("play one of: rock, paper, scissors")
	}

	if m.Moves == nil {
		m.Moves = make(map[string]string)
	}

	if _, ok := m.Moves[userKey]; ok {
		return nil, domain.ErrAlreadySubmitted
	}

	m.Moves[userKey] = choice

	result := &MoveResult{
		PrivateReply: fmt.Sprintf("you played %s", choice),
	}

	if len(m.Players) < r.RequiredPlayers() || len(m.Moves) < len(m.Players) {
		result.PrivateReply += ", waiting for your opponent"
		return result, nil
	}

	a, b := m.Players[0], m.Players[1]
	winner := ""
	switch {
	case m.Moves[a] == m.Moves[b]:
	case rpsBeats[m.Moves[a]] == m.Moves[b]:
		winner = a
	default:
		winner = b
	}

	result.Finished = true
	if winner == "" {
		result.Summary = fmt.Sprintf("%s and %s both played %s — it's a draw!",
			mention(m, a), mention(m, b), m.Moves[a])
		result.Deltas = map[string]int{}
	} else {
		loser := a
		if winner == a {
			loser = b
		}
		m.Scores[winner]++
		result.Summary = fmt.Sprintf("%s played %s, %s played %s — %s wins!",
			mention(m, a), m.Moves[a], mention(m, b), m.Moves[b], mention(m, winner))
		result.Deltas = map[string]int{winner: 1, loser: 0}
	}

	return result, nil
}

func (r *RPS) Status(m *Master) string {
	submitted := make([]string, 0, len(m.Moves))
	for key := range m.Moves {
		submitted = append(submitted, mention(m, key))
	}

	return fmt.Sprintf("Rock-paper-scissors %s: %d players, moves in from: %s",
		m.GameID, len(m.Players), joinOrDash(submitted))
}

func (r *RPS) Reveal(m *Master) string {
	if len(m.Moves) == 0 {
		return "No moves were submitted."
	}

	parts := make([]string, 0, len(m.Moves))
	for key, move := range m.Moves {
		parts = append(parts, fmt.Sprintf("%s played %s", mention(m, key), move))
	}

	return strings.Join(parts, ", ") + "."
}

// PlaySolo resolves an instant round against the bot. It holds no session;
// the outcome is terminal immediately.
func PlaySolo(choice, botChoice string) (string, bool) {
	choice = strings.ToLower(choice)
	if _, ok := rpsBeats[choice]; !ok {
		return "", false
	}

	switch {
	case choice == botChoice:
		return fmt.Sprintf("I played %s too — draw!", botChoice), true
	case rpsBeats[choice] == botChoice:
		return fmt.Sprintf("I played %s — you win!", botChoice), true
	default:
		return fmt.Sprintf("I played %s — I win!", botChoice), true
	}
}
