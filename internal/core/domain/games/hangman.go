package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const HangmanName = "hangman"

const soloLives = 6

// Hangman implements the word-guessing rules. Players privately guess one
// letter at a time; each newly revealed occurrence scores a point, and the
// game ends when the word is fully revealed.
type Hangman struct {
	words port.WordSource
}

func NewHangman(words port.WordSource) *Hangman {
	return &Hangman{words: words}
}

func (h *Hangman) Name() string { return HangmanName }

func (h *Hangman) RequiredPlayers() int { return 2 }

func (h *Hangman) Init(ctx context.Context, m *Master) error {
	word, err := h.words.RandomWord(ctx)
	if err != nil {
		return fmt.Errorf("failed to pick a word: %w", err)
	}

	m.Word = strings.ToUpper(word)
	m.Guessed = nil

	return nil
}

func (h *Hangman) ValidMove(move string) bool {
	runes := []rune(move)
	return len(runes) == 1 && unicode.IsLetter(runes[0])
}

func (h *Hangman) ApplyMove(m *Master, userKey, move string) (*MoveResult, error) {
	if !h.ValidMove(move) {
		return nil, errors.New("guess a single letter")
	}

	letter := strings.ToUpper(move)
	for _, g := range m.Guessed {
		if g == letter {
			return nil, fmt.Errorf("letter %s was already guessed", letter)
		}
	}

	m.Guessed = append(m.Guessed, letter)

	hits := strings.Count(m.Word, letter)
	if hits > 0 {
		m.Scores[userKey] += hits
	}

	mask := MaskWord(m.Word, m.Guessed)
	name := mention(m, userKey)

	result := &MoveResult{}
	if hits > 0 {
		result.PrivateReply = fmt.Sprintf("%s is in the word! +%d", letter, hits)
		result.Announcement = fmt.Sprintf("%s guessed %s — it's in the word!\n%s", name, letter, mask)
	} else {
		result.PrivateReply = fmt.Sprintf("%s is not in the word", letter)
		result.Announcement = fmt.Sprintf("%s guessed %s — not in the word.\n%s", name, letter, mask)
	}

	if !strings.Contains(mask, maskRune) {
		result.Finished = true
		result.Deltas = m.Scores
		result.Summary = h.summary(m)
	}

	return result, nil
}

func (h *Hangman) Status(m *Master) string {
	return fmt.Sprintf("Hangman %s: %s (guessed: %s, %d players)",
		m.GameID, MaskWord(m.Word, m.Guessed), joinOrDash(m.Guessed), len(m.Players))
}

func (h *Hangman) Reveal(m *Master) string {
	return fmt.Sprintf("The word was: %s", m.Word)
}

func (h *Hangman) summary(m *Master) string {
	type line struct {
		key   string
		score int
	}

	lines := make([]line, 0, len(m.Scores))
	for key, score := range m.Scores {
		lines = append(lines, line{key: key, score: score})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].score > lines[j].score })

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "The word %s is solved! Final scores:\n", m.Word)
	for i, l := range lines {
		fmt.Fprintf(sb, "%d. %s: %d\n", i+1, mention(m, l.key), l.score)
	}
	if len(lines) > 0 {
		fmt.Fprintf(sb, "%s wins!", mention(m, lines[0].key))
	}

	return sb.String()
}

const maskRune = "◌"

// MaskWord renders the word with unguessed letters masked. It is always
// recomputed from the guessed letters, never stored, so a partially written
// record can't present a stale mask.
func MaskWord(word string, guessed []string) string {
	set := make(map[rune]struct{}, len(guessed))
	for _, g := range guessed {
		for _, r := range strings.ToUpper(g) {
			set[r] = struct{}{}
		}
	}

	out := make([]string, 0, len(word))
	for _, r := range word {
		if _, ok := set[r]; ok {
			out = append(out, string(r))
		} else {
			out = append(out, maskRune)
		}
	}

	return strings.Join(out, " ")
}

// SoloHangman is the single-player session payload: the player guesses
// against the bot in their own chat with a limited number of wrong guesses.
type SoloHangman struct {
	Word    string   `json:"word"`
	Guessed []string `json:"guessed"`
	Lives   int      `json:"lives"`
}

// StartSolo begins a solo hangman round in the message's chat.
func (e *Engine) StartSolo(ctx context.Context, h *Hangman, msg *domain.Message) error {
	word, err := h.words.RandomWord(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to pick a word")
		return e.reply(ctx, msg, "could not start the game, try again later")
	}

	solo := &SoloHangman{Word: strings.ToUpper(word), Lives: soloLives}
	payload, err := json.Marshal(solo)
	if err != nil {
		return err
	}

	if !e.sessions.Set(ctx, msg.ChatID, msg.UserKey(), HangmanName, payload) {
		return e.reply(ctx, msg, "this chat has too many active sessions, try again later")
	}

	return e.reply(ctx, msg, fmt.Sprintf("Guess the word! %s (%d lives). Reply with one letter at a time.",
		MaskWord(solo.Word, nil), solo.Lives))
}

// SoloGuess applies one letter to the sender's solo game and clears the
// session on a win or loss.
func (e *Engine) SoloGuess(ctx context.Context, msg *domain.Message, move string) error {
	sess := e.sessions.Get(ctx, msg.ChatID, msg.UserKey())
	if sess == nil || sess.Kind != HangmanName {
		return e.reply(ctx, msg, "no running game, start one with: hangman play")
	}

	var solo SoloHangman
	if err := json.Unmarshal(sess.Payload, &solo); err != nil {
		log.Error().Err(err).Msg("corrupt solo session, deleting")
		e.sessions.Clear(ctx, msg.ChatID, msg.UserKey())
		return e.reply(ctx, msg, "your game was corrupted and has been reset")
	}

	runes := []rune(move)
	if len(runes) != 1 || !unicode.IsLetter(runes[0]) {
		return e.reply(ctx, msg, "guess a single letter")
	}

	letter := strings.ToUpper(move)
	for _, g := range solo.Guessed {
		if g == letter {
			return e.reply(ctx, msg, fmt.Sprintf("letter %s was already guessed", letter))
		}
	}

	solo.Guessed = append(solo.Guessed, letter)
	hit := strings.Contains(solo.Word, letter)
	if !hit {
		solo.Lives--
	}

	mask := MaskWord(solo.Word, solo.Guessed)

	if !strings.Contains(mask, maskRune) {
		e.sessions.Clear(ctx, msg.ChatID, msg.UserKey())
		if err := e.leaderboard.UpdateUserStat(ctx, msg.UserKey(), msg.Username, HangmanName, 1); err != nil {
			log.Error().Err(err).Msg("failed to persist leaderboard update")
		}
		return e.reply(ctx, msg, fmt.Sprintf("You got it! The word was %s.", solo.Word))
	}

	if solo.Lives <= 0 {
		e.sessions.Clear(ctx, msg.ChatID, msg.UserKey())
		return e.reply(ctx, msg, fmt.Sprintf("Out of lives! The word was %s.", solo.Word))
	}

	payload, err := json.Marshal(&solo)
	if err != nil {
		return err
	}
	e.sessions.Set(ctx, msg.ChatID, msg.UserKey(), HangmanName, payload)

	if hit {
		return e.reply(ctx, msg, fmt.Sprintf("%s is in the word! %s (%d lives)", letter, mask, solo.Lives))
	}

	return e.reply(ctx, msg, fmt.Sprintf("%s is not in the word. %s (%d lives)", letter, mask, solo.Lives))
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}

	return strings.Join(values, ", ")
}
