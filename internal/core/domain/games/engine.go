// Package games implements the multiplayer game session engine. A single
// logical game spans one group chat and each player's private chat: the
// master record in the group chat is the single source of truth, and every
// player holds a lightweight link record in their private chat pointing back
// at it. There is no transaction across the two, so every operation here
// compensates (rolls back or lazily deletes dangling records) instead of
// assuming atomicity.
package games

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog/log"
)

// Master is the authoritative group-chat record for one game. It lives in
// the group chat's session slot under the game id as participant key.
type Master struct {
	GameID      string            `json:"gameId"`
	Game        string            `json:"game"`
	GroupChatID int64             `json:"groupChatId"`
	HostKey     string            `json:"hostKey"`
	Players     []string          `json:"players"`
	Names       map[string]string `json:"names"`
	Scores      map[string]int    `json:"scores"`

	// word-guessing state
	Word    string   `json:"word,omitempty"`
	Guessed []string `json:"guessed,omitempty"`

	// gesture-game state, player key to submitted move
	Moves map[string]string `json:"moves,omitempty"`
}

// HasPlayer reports whether key is a recognized participant.
func (m *Master) HasPlayer(key string) bool {
	for _, p := range m.Players {
		if p == key {
			return true
		}
	}

	return false
}

// Link is the per-player private-chat record. Its only job is answering
// "which group game does my next private message belong to". Links are pure
// indices and disposable; the master is always authoritative.
type Link struct {
	Game        string `json:"game"`
	GameID      string `json:"gameId"`
	GroupChatID int64  `json:"groupChatId"`
}

// LinkKind is the session kind tag for a game's link records.
func LinkKind(game string) string {
	return game + "-link"
}

// MoveResult is the outcome of applying one submitted move.
type MoveResult struct {
	PrivateReply string
	Announcement string
	Finished     bool
	Summary      string
	Deltas       map[string]int
}

// Rules captures the game-specific half of the engine.
type Rules interface {
	Name() string
	RequiredPlayers() int
	// Init populates game-specific master fields for a fresh game.
	Init(ctx context.Context, m *Master) error
	// ValidMove reports whether text is syntactically a move for this game,
	// used to route bare private messages.
	ValidMove(move string) bool
	// ApplyMove validates and records one move by a recognized player. User
	// errors (duplicate move, bad input) come back as an error whose text is
	// replied verbatim.
	ApplyMove(m *Master, userKey, move string) (*MoveResult, error)
	// Status renders the group-visible state of a running game.
	Status(m *Master) string
	// Reveal is announced when the host stops the game early.
	Reveal(m *Master) string
}

type Engine struct {
	sessions    port.SessionStore
	leaderboard port.Leaderboard
	sender      port.Sender
	rules       map[string]Rules
}

func NewEngine(sessions port.SessionStore, leaderboard port.Leaderboard, sender port.Sender, rules ...Rules) *Engine {
	byName := make(map[string]Rules, len(rules))
	for _, r := range rules {
		byName[r.Name()] = r
	}

	return &Engine{
		sessions:    sessions,
		leaderboard: leaderboard,
		sender:      sender,
		rules:       byName,
	}
}

// IsGameKind reports whether kind tags a master or solo record of a known game.
func (e *Engine) IsGameKind(kind string) bool {
	_, ok := e.rules[kind]
	return ok
}

// IsLinkKind reports whether kind tags a link record of a known game.
func (e *Engine) IsLinkKind(kind string) bool {
	game, ok := strings.CutSuffix(kind, "-link")
	if !ok {
		return false
	}
	_, ok = e.rules[game]

	return ok
}

// Family maps a session kind (master, solo or link) to its game name.
func (e *Engine) Family(kind string) (string, bool) {
	if e.IsGameKind(kind) {
		return kind, true
	}
	if game, ok := strings.CutSuffix(kind, "-link"); ok {
		if _, known := e.rules[game]; known {
			return game, true
		}
	}

	return "", false
}

// privateChatID derives a player's one-on-one chat from their user key. On
// this transport a private chat's id equals the user's id.
func privateChatID(userKey string) int64 {
	id, err := strconv.ParseInt(userKey, 10, 64)
	if err != nil {
		log.Error().Str("userKey", userKey).Msg("user key is not a chat id")
		return 0
	}

	return id
}

const gameIDLength = 4

// newGameID generates a short identifier, collision-checked against games
// currently active in the group chat.
func (e *Engine) newGameID(ctx context.Context, chatID int64) string {
	for {
		id := strings.ToLower(shortuuid.New()[:gameIDLength])
		if e.sessions.Get(ctx, chatID, id) == nil {
			return id
		}
	}
}

// Start creates a new multiplayer game hosted by the message's sender. The
// host immediately receives a link record; if that write fails the master is
// rolled back so no half-created game remains.
func (e *Engine) Start(ctx context.Context, game string, msg *domain.Message) error {
	rules, ok := e.rules[game]
	if !ok {
		return fmt.Errorf("unknown game: %s", game)
	}

	if !msg.IsGroup {
		return e.reply(ctx, msg, "multiplayer games start in a group chat")
	}

	hostKey := msg.UserKey()
	if e.loadLink(ctx, privateChatID(hostKey), hostKey) != nil {
		return e.reply(ctx, msg, "finish your current game first")
	}
	m := &Master{
		GameID:      e.newGameID(ctx, msg.ChatID),
		Game:        game,
		GroupChatID: msg.ChatID,
		HostKey:     hostKey,
		Players:     []string{hostKey},
		Names:       map[string]string{hostKey: msg.Username},
		Scores:      map[string]int{hostKey: 0},
	}

	if err := rules.Init(ctx, m); err != nil {
		log.Error().Err(err).Str("game", game).Msg("failed to initialize game state")
		return e.reply(ctx, msg, "could not start the game, try again later")
	}

	if !e.writeMaster(ctx, m) {
		return e.reply(ctx, msg, "this chat has too many active sessions, try again later")
	}

	if !e.writeLink(ctx, m, hostKey) {
		// no link means the host could never move; undo the start
		e.sessions.Clear(ctx, m.GroupChatID, m.GameID)
		return e.reply(ctx, msg, "could not start the game, try again later")
	}

	log.Info().Str("game", game).Str("gameId", m.GameID).Int64("chatId", msg.ChatID).
		Str("host", hostKey).Msg("multiplayer game started")

	text := fmt.Sprintf("%s started a game of %s!\n%s\nJoin with: %s join %s\nMoves are sent to me in private chat.",
		mention(m, hostKey), game, rules.Status(m), game, m.GameID)

	return e.reply(ctx, msg, text)
}

// Join adds the sender to a running game and writes their link record. A
// failed link write rolls the join back rather than leaving a half-joined
// player.
func (e *Engine) Join(ctx context.Context, game string, msg *domain.Message, gameID string) error {
	rules := e.rules[game]

	m := e.loadMaster(ctx, msg.ChatID, game, gameID)
	if m == nil {
		return e.reply(ctx, msg, fmt.Sprintf("no %s game with id %s in this chat", game, gameID))
	}

	key := msg.UserKey()
	if m.HasPlayer(key) {
		return e.reply(ctx, msg, "you are already in this game")
	}
	if e.loadLink(ctx, privateChatID(key), key) != nil {
		return e.reply(ctx, msg, "finish your current game first")
	}
	if len(m.Players) >= rules.RequiredPlayers() {
		return e.reply(ctx, msg, "this game is already full")
	}

	m.Players = append(m.Players, key)
	m.Names[key] = msg.Username
	m.Scores[key] = 0

	if !e.writeMaster(ctx, m) {
		return e.reply(ctx, msg, "could not join the game, try again later")
	}

	if !e.writeLink(ctx, m, key) {
		m.Players = removeKey(m.Players, key)
		delete(m.Names, key)
		delete(m.Scores, key)
		e.writeMaster(ctx, m)
		return e.reply(ctx, msg, "could not join the game, try again later")
	}

	log.Info().Str("game", game).Str("gameId", m.GameID).Str("player", key).Msg("player joined")

	names := make([]string, 0, len(m.Players))
	for _, p := range m.Players {
		names = append(names, mention(m, p))
	}

	return e.reply(ctx, msg, fmt.Sprintf("%s joined game %s! Players (%d): %s\nSend your moves to me in private chat.",
		mention(m, key), m.GameID, len(m.Players), strings.Join(names, ", ")))
}

// Move handles one privately submitted move. The sender's link record is the
// index back to the group game; a dangling link (master gone, or the master
// no longer lists the player) is deleted and reported instead of erroring
// forever.
func (e *Engine) Move(ctx context.Context, msg *domain.Message, move string) error {
	key := msg.UserKey()

	link := e.loadLink(ctx, msg.ChatID, key)
	if link == nil {
		return e.reply(ctx, msg, "you are not in a running game right now")
	}

	rules, ok := e.rules[link.Game]
	if !ok {
		e.sessions.Clear(ctx, msg.ChatID, key)
		return e.reply(ctx, msg, "that game is gone; cleaned up your session")
	}

	m := e.loadMaster(ctx, link.GroupChatID, link.Game, link.GameID)
	if m == nil || !m.HasPlayer(key) {
		e.sessions.Clear(ctx, msg.ChatID, key)
		return e.reply(ctx, msg, "that game no longer exists; cleaned up your session")
	}

	result, err := rules.ApplyMove(m, key, move)
	if err != nil {
		return e.reply(ctx, msg, err.Error())
	}

	if !e.writeMaster(ctx, m) {
		return e.reply(ctx, msg, "could not record your move, try again later")
	}

	if result.PrivateReply != "" {
		e.send(ctx, msg.ChatID, result.PrivateReply)
	}
	if result.Announcement != "" {
		e.send(ctx, m.GroupChatID, result.Announcement)
	}

	if result.Finished {
		e.finish(ctx, m, result)
	}

	return nil
}

// Leave removes the sender from their running game. A departing host hands
// the role to the next remaining player; the last player leaving tears the
// game down.
func (e *Engine) Leave(ctx context.Context, game string, msg *domain.Message) error {
	key := msg.UserKey()

	link := e.loadLink(ctx, privateChatID(key), key)
	if link == nil || link.Game != game {
		return e.reply(ctx, msg, fmt.Sprintf("you are not in a %s game", game))
	}

	m := e.loadMaster(ctx, link.GroupChatID, link.Game, link.GameID)
	if m == nil || !m.HasPlayer(key) {
		e.sessions.Clear(ctx, privateChatID(key), key)
		return e.reply(ctx, msg, "that game no longer exists; cleaned up your session")
	}

	name := mention(m, key)
	m.Players = removeKey(m.Players, key)
	delete(m.Scores, key)
	delete(m.Moves, key)
	e.sessions.Clear(ctx, privateChatID(key), key)

	if len(m.Players) == 0 {
		e.teardown(ctx, m)
		log.Info().Str("gameId", m.GameID).Msg("last player left, game torn down")
		return e.reply(ctx, msg, fmt.Sprintf("%s left and the game %s is over.", name, m.GameID))
	}

	announcement := fmt.Sprintf("%s left game %s.", name, m.GameID)
	if m.HostKey == key {
		m.HostKey = m.Players[0]
		announcement += fmt.Sprintf(" %s is the new host.", mention(m, m.HostKey))
	}

	if !e.writeMaster(ctx, m) {
		log.Error().Str("gameId", m.GameID).Msg("failed to persist master after leave")
	}

	e.send(ctx, m.GroupChatID, announcement)
	if !msg.IsGroup {
		e.reply(ctx, msg, "you left the game")
	}

	return nil
}

// Stop lets the host terminate the game for everyone, revealing the result.
func (e *Engine) Stop(ctx context.Context, game string, msg *domain.Message) error {
	key := msg.UserKey()

	link := e.loadLink(ctx, privateChatID(key), key)
	if link == nil || link.Game != game {
		return e.reply(ctx, msg, fmt.Sprintf("you are not in a %s game", game))
	}

	m := e.loadMaster(ctx, link.GroupChatID, link.Game, link.GameID)
	if m == nil {
		e.sessions.Clear(ctx, privateChatID(key), key)
		return e.reply(ctx, msg, "that game no longer exists; cleaned up your session")
	}

	if m.HostKey != key {
		return e.reply(ctx, msg, domain.ErrNotHost.Error())
	}

	rules := e.rules[game]
	e.send(ctx, m.GroupChatID, fmt.Sprintf("%s stopped game %s. %s", mention(m, key), m.GameID, rules.Reveal(m)))
	e.teardown(ctx, m)

	log.Info().Str("gameId", m.GameID).Str("host", key).Msg("game stopped by host")

	return nil
}

// Status replies with the state of a game in this chat, or "not found".
func (e *Engine) Status(ctx context.Context, game string, msg *domain.Message, gameID string) error {
	m := e.loadMaster(ctx, msg.ChatID, game, gameID)
	if m == nil {
		return e.reply(ctx, msg, fmt.Sprintf("no %s game with id %s found", game, gameID))
	}

	return e.reply(ctx, msg, e.rules[game].Status(m))
}

// finish announces the final result, persists score deltas to the
// leaderboard, and tears everything down.
func (e *Engine) finish(ctx context.Context, m *Master, result *MoveResult) {
	for key, delta := range result.Deltas {
		if delta == 0 {
			continue
		}
		if err := e.leaderboard.UpdateUserStat(ctx, key, m.Names[key], m.Game, delta); err != nil {
			log.Error().Err(err).Str("userKey", key).Str("game", m.Game).
				Msg("failed to persist leaderboard update")
		}
	}

	if result.Summary != "" {
		e.send(ctx, m.GroupChatID, result.Summary)
	}

	e.teardown(ctx, m)
	log.Info().Str("game", m.Game).Str("gameId", m.GameID).Msg("game finished")
}

// teardown deletes the master record and every player's link record.
func (e *Engine) teardown(ctx context.Context, m *Master) {
	e.sessions.Clear(ctx, m.GroupChatID, m.GameID)
	for _, p := range m.Players {
		e.sessions.Clear(ctx, privateChatID(p), p)
	}
}

func (e *Engine) loadMaster(ctx context.Context, chatID int64, game, gameID string) *Master {
	sess := e.sessions.Get(ctx, chatID, gameID)
	if sess == nil || sess.Kind != game {
		return nil
	}

	var m Master
	if err := json.Unmarshal(sess.Payload, &m); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("corrupt master record, deleting")
		e.sessions.Clear(ctx, chatID, gameID)
		return nil
	}

	if m.Names == nil {
		m.Names = make(map[string]string)
	}
	if m.Scores == nil {
		m.Scores = make(map[string]int)
	}

	return &m
}

func (e *Engine) writeMaster(ctx context.Context, m *Master) bool {
	payload, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Str("gameId", m.GameID).Msg("failed to marshal master record")
		return false
	}

	return e.sessions.Set(ctx, m.GroupChatID, m.GameID, m.Game, payload)
}

func (e *Engine) loadLink(ctx context.Context, chatID int64, userKey string) *Link {
	sess := e.sessions.Get(ctx, chatID, userKey)
	if sess == nil || !e.IsLinkKind(sess.Kind) {
		return nil
	}

	var link Link
	if err := json.Unmarshal(sess.Payload, &link); err != nil {
		log.Error().Err(err).Str("userKey", userKey).Msg("corrupt link record, deleting")
		e.sessions.Clear(ctx, chatID, userKey)
		return nil
	}

	return &link
}

func (e *Engine) writeLink(ctx context.Context, m *Master, userKey string) bool {
	payload, err := json.Marshal(&Link{
		Game:        m.Game,
		GameID:      m.GameID,
		GroupChatID: m.GroupChatID,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal link record")
		return false
	}

	return e.sessions.Set(ctx, privateChatID(userKey), userKey, LinkKind(m.Game), payload)
}

func (e *Engine) reply(ctx context.Context, msg *domain.Message, text string) error {
	if _, err := e.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, text); err != nil {
		log.Error().Err(err).Int64("chatId", msg.ChatID).Msg(domain.ErrSendingReplyFailed.Error())
		return err
	}

	return nil
}

func (e *Engine) send(ctx context.Context, chatID int64, text string) {
	if _, err := e.sender.SendMessage(ctx, chatID, text); err != nil {
		log.Error().Err(err).Int64("chatId", chatID).Msg("failed to send game message")
	}
}

func mention(m *Master, key string) string {
	if name := m.Names[key]; name != "" {
		return name
	}

	return key
}

func removeKey(keys []string, key string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}

	return out
}
