package games

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskWord(t *testing.T) {
	tests := []struct {
		name     string
		word     string
		guessed  []string
		expected string
	}{
		{
			name:     "nothing guessed",
			word:     "KUCING",
			guessed:  nil,
			expected: "◌ ◌ ◌ ◌ ◌ ◌",
		},
		{
			name:     "partial reveal with repeated letter",
			word:     "KUCING",
			guessed:  []string{"K", "U"},
			expected: "K U ◌ ◌ ◌ ◌",
		},
		{
			name:     "lowercase guesses count",
			word:     "KUCING",
			guessed:  []string{"k", "u", "c", "i", "n", "g"},
			expected: "K U C I N G",
		},
		{
			name:     "misses change nothing",
			word:     "GO",
			guessed:  []string{"X", "Z"},
			expected: "◌ ◌",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MaskWord(tc.word, tc.guessed))
		})
	}
}

func TestHangmanApplyMoveScoresOccurrences(t *testing.T) {
	h := NewHangman(&fixedWords{word: "KUCING"})
	m := &Master{
		Word:   "KUCING",
		Names:  map[string]string{"1": "@alice"},
		Scores: map[string]int{"1": 0},
	}

	result, err := h.ApplyMove(m, "1", "u")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Scores["1"])
	assert.Contains(t, result.PrivateReply, "+1")
	assert.False(t, result.Finished)

	result, err = h.ApplyMove(m, "1", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Scores["1"], "miss scores nothing")
	assert.Contains(t, result.Announcement, "not in the word")
}

func TestHangmanApplyMoveRejectsRepeatAndNonLetter(t *testing.T) {
	h := NewHangman(&fixedWords{word: "KUCING"})
	m := &Master{
		Word:    "KUCING",
		Guessed: []string{"K"},
		Names:   map[string]string{"1": "@alice"},
		Scores:  map[string]int{"1": 1},
	}

	_, err := h.ApplyMove(m, "1", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already guessed")
	assert.Equal(t, 1, m.Scores["1"])

	_, err = h.ApplyMove(m, "1", "kk")
	require.Error(t, err)

	_, err = h.ApplyMove(m, "1", "7")
	require.Error(t, err)
}

func TestHangmanTerminalCondition(t *testing.T) {
	h := NewHangman(&fixedWords{word: "KUCING"})
	m := &Master{
		Word:    "KUCING",
		Guessed: []string{"K", "U", "C", "I", "N"},
		Names:   map[string]string{"1": "@alice", "2": "@bob"},
		Scores:  map[string]int{"1": 6, "2": 0},
	}

	result, err := h.ApplyMove(m, "2", "g")
	require.NoError(t, err)
	require.True(t, result.Finished)
	assert.Equal(t, map[string]int{"1": 6, "2": 1}, result.Deltas)
	assert.Contains(t, result.Summary, "KUCING")
	assert.Contains(t, result.Summary, "@alice wins!")
	assert.NotContains(t, result.Summary, maskRune)
}

func TestSoloHangmanWinUpdatesLeaderboard(t *testing.T) {
	f := newGameFixture("GO")
	ctx := context.Background()
	h := f.engine.rules[HangmanName].(*Hangman)
	msg := privateMsg(7, "@carol", "hangman play")

	require.NoError(t, f.engine.StartSolo(ctx, h, msg))
	assert.Contains(t, f.sender.Last(), "6 lives")

	require.NoError(t, f.engine.SoloGuess(ctx, msg, "g"))
	assert.Contains(t, f.sender.Last(), "G ◌")

	require.NoError(t, f.engine.SoloGuess(ctx, msg, "o"))
	assert.Contains(t, f.sender.Last(), "You got it!")
	assert.Equal(t, 1, f.leaderboard.Updates[HangmanName+"/7"])
	assert.Nil(t, f.sessions.Get(ctx, 7, "7"), "session cleared on win")
}

func TestSoloHangmanRunsOutOfLives(t *testing.T) {
	f := newGameFixture("GO")
	ctx := context.Background()
	h := f.engine.rules[HangmanName].(*Hangman)
	msg := privateMsg(7, "@carol", "hangman play")

	require.NoError(t, f.engine.StartSolo(ctx, h, msg))

	for _, miss := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, f.engine.SoloGuess(ctx, msg, miss))
	}

	assert.Contains(t, f.sender.Last(), "Out of lives")
	assert.Contains(t, f.sender.Last(), "GO")
	assert.Nil(t, f.sessions.Get(ctx, 7, "7"))
	assert.Zero(t, f.leaderboard.Updates[HangmanName+"/7"])
}

func TestSoloHangmanGuessWithoutGame(t *testing.T) {
	f := newGameFixture("GO")

	require.NoError(t, f.engine.SoloGuess(context.Background(), privateMsg(7, "@carol", "g"), "g"))

	assert.Contains(t, f.sender.Last(), "no running game")
}

func TestSoloHangmanRepeatedLetterCostsNoLife(t *testing.T) {
	f := newGameFixture("GO")
	ctx := context.Background()
	h := f.engine.rules[HangmanName].(*Hangman)
	msg := privateMsg(7, "@carol", "hangman play")

	require.NoError(t, f.engine.StartSolo(ctx, h, msg))
	require.NoError(t, f.engine.SoloGuess(ctx, msg, "x"))
	require.NoError(t, f.engine.SoloGuess(ctx, msg, "x"))

	assert.Contains(t, f.sender.Last(), "already guessed")

	require.NoError(t, f.engine.SoloGuess(ctx, msg, "z"))
	assert.Contains(t, f.sender.Last(), "4 lives", "only distinct misses cost a life")
}

func TestRPSPlaySolo(t *testing.T) {
	reply, ok := PlaySolo("rock", "scissors")
	require.True(t, ok)
	assert.Contains(t, reply, "you win")

	reply, ok = PlaySolo("rock", "paper")
	require.True(t, ok)
	assert.Contains(t, reply, "I win")

	reply, ok = PlaySolo("ROCK", "rock")
	require.True(t, ok)
	assert.Contains(t, reply, "draw")

	_, ok = PlaySolo("lizard", "rock")
	assert.False(t, ok)
}

func TestRPSDrawAwardsNothing(t *testing.T) {
	r := NewRPS()
	m := &Master{
		Players: []string{"1", "2"},
		Names:   map[string]string{"1": "@alice", "2": "@bob"},
		Scores:  map[string]int{"1": 0, "2": 0},
		Moves:   map[string]string{"1": "paper"},
	}

	result, err := r.ApplyMove(m, "2", "paper")
	require.NoError(t, err)
	require.True(t, result.Finished)
	assert.Empty(t, result.Deltas)
	assert.Contains(t, result.Summary, "draw")
}

func TestRPSWaitsForSecondPlayerToJoin(t *testing.T) {
	r := NewRPS()
	m := &Master{
		Players: []string{"1"},
		Names:   map[string]string{"1": "@alice"},
		Scores:  map[string]int{"1": 0},
		Moves:   map[string]string{},
	}

	result, err := r.ApplyMove(m, "1", "rock")
	require.NoError(t, err)
	assert.False(t, result.Finished)
	assert.True(t, strings.Contains(result.PrivateReply, "waiting"))
}
