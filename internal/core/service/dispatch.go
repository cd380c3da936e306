package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/domain/command"
	"gamebot/internal/core/port"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// GameRouter is the slice of the game engine the dispatcher needs: routing
// bare moves and recognizing game-family session kinds.
type GameRouter interface {
	HandleBare(ctx context.Context, msg *domain.Message) bool
	Family(kind string) (string, bool)
}

// BotConfig is the read-mostly dispatcher configuration, refreshed on demand
// via Reload.
type BotConfig struct {
	Prefix      string
	AltPrefixes []string
	Messages    Messages
}

type Messages struct {
	Unknown  string
	Error    string
	Cooldown string
	Denied   string
	Busy     string
	Disabled string
}

func LoadBotConfig() BotConfig {
	cfg := BotConfig{
		Prefix:      viper.GetString("bot.prefix"),
		AltPrefixes: viper.GetStringSlice("bot.alt_prefixes"),
		Messages: Messages{
			Unknown:  viper.GetString("messages.unknown"),
			Error:    viper.GetString("messages.error"),
			Cooldown: viper.GetString("messages.cooldown"),
			Denied:   viper.GetString("messages.denied"),
			Busy:     viper.GetString("messages.busy"),
			Disabled: viper.GetString("messages.disabled"),
		},
	}

	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	fallback(&cfg.Messages.Unknown, "Unknown command. Send {prefix}help for the list of commands.")
	fallback(&cfg.Messages.Error, "Something went wrong running that command, please try again later.")
	fallback(&cfg.Messages.Cooldown, "Slow down! You can use that again in %d seconds.")
	fallback(&cfg.Messages.Denied, "You don't have permission to use that command.")
	fallback(&cfg.Messages.Busy, "Finish your current game first.")
	fallback(&cfg.Messages.Disabled, "That command is disabled: %s")

	return cfg
}

func fallback(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

// Dispatcher turns inbound messages into command invocations: prefix and
// token parsing, built-ins, alias resolution, the disabled/role/cooldown
// gates, the one-session-per-participant entry gate for games, and the
// outer catch-all that turns any handler failure into exactly one error
// reply.
type Dispatcher struct {
	registry  *command.Registry
	sessions  port.SessionStore
	cooldowns *CooldownTracker
	roles     *Roles
	stats     port.UsageStats
	sender    port.Sender
	games     GameRouter
	timeout   time.Duration

	cfgMutex sync.RWMutex
	cfg      BotConfig
}

func NewDispatcher(registry *command.Registry, sessions port.SessionStore, cooldowns *CooldownTracker,
	roles *Roles, stats port.UsageStats, sender port.Sender, games GameRouter,
	timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		sessions:  sessions,
		cooldowns: cooldowns,
		roles:     roles,
		stats:     stats,
		sender:    sender,
		games:     games,
		timeout:   timeout,
		cfg:       LoadBotConfig(),
	}
}

// Reload re-reads the bot configuration from the config source.
func (d *Dispatcher) Reload() {
	cfg := LoadBotConfig()

	d.cfgMutex.Lock()
	d.cfg = cfg
	d.cfgMutex.Unlock()

	log.Info().Msg("dispatcher config reloaded")
}

func (d *Dispatcher) config() BotConfig {
	d.cfgMutex.RLock()
	defer d.cfgMutex.RUnlock()

	return d.cfg
}

// Dispatch processes one inbound message to completion. It never panics:
// anything escaping a handler is logged and answered with the configured
// error message.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *domain.Message) {
	if msg == nil || msg.IsFromSelf {
		return
	}

	cfg := d.config()

	text, ok := d.stripPrefix(cfg, msg.Text)
	if !ok {
		if d.games != nil {
			d.games.HandleBare(ctx, msg)
		}
		return
	}

	cmdToken, args := command.ParseCommand(text)
	if cmdToken == "" {
		return
	}

	corrID, _ := uuid.NewV4()
	l := log.With().
		Str("invocation", corrID.String()).
		Int64("chatId", msg.ChatID).
		Int64("userId", msg.UserID).
		Str("command", cmdToken).
		Logger()

	l.Info().Msg("handling command")

	if d.handleBuiltin(ctx, cfg, cmdToken, msg) {
		return
	}

	descriptor, err := d.registry.Resolve(cmdToken)
	if err != nil {
		l.Debug().Msg("no handler for command")
		d.reply(ctx, msg, strings.ReplaceAll(cfg.Messages.Unknown, "{prefix}", cfg.Prefix))
		return
	}

	if !d.passGates(ctx, cfg, descriptor, msg, l) {
		return
	}

	if err := d.stats.Increment(ctx, descriptor.Name, msg.UserKey()); err != nil {
		l.Warn().Err(err).Msg("failed to record usage statistics")
	}

	if descriptor.Category == domain.CategoryGame && !d.passSessionGate(ctx, cfg, descriptor, msg) {
		return
	}

	d.invoke(ctx, cfg, descriptor, args, msg, l)
}

func (d *Dispatcher) stripPrefix(cfg BotConfig, text string) (string, bool) {
	text = strings.TrimSpace(text)
	for _, prefix := range append([]string{cfg.Prefix}, cfg.AltPrefixes...) {
		if prefix != "" && strings.HasPrefix(text, prefix) {
			return text[len(prefix):], true
		}
	}

	return text, false
}

// passGates applies the disabled, role and cooldown checks in order; the
// first failure replies and stops.
func (d *Dispatcher) passGates(ctx context.Context, cfg BotConfig, descriptor *command.Descriptor,
	msg *domain.Message, l zerolog.Logger) bool {
	if descriptor.Disabled {
		reason := descriptor.DisabledReason
		if reason == "" {
			reason = "no reason given"
		}
		d.reply(ctx, msg, fmt.Sprintf(cfg.Messages.Disabled, reason))
		return false
	}

	if !d.roles.HasAny(msg.UserID, descriptor.RequiredRoles) {
		l.Debug().Msg("participant lacks required role")
		d.reply(ctx, msg, cfg.Messages.Denied)
		return false
	}

	if descriptor.Cooldown > 0 &&
		d.cooldowns.CheckAndRecord(msg.UserKey(), descriptor.Name, descriptor.Cooldown, descriptor.MaxUses) {
		remaining := d.cooldowns.RemainingSeconds(msg.UserKey(), descriptor.Name, descriptor.Cooldown)
		l.Debug().Int("remaining", remaining).Msg("command on cooldown")
		d.reply(ctx, msg, fmt.Sprintf(cfg.Messages.Cooldown, remaining))
		return false
	}

	return true
}

// passSessionGate enforces one active session per participant: a game
// command is refused while the participant holds a session of a different
// game family in this chat. A link record of the same family passes, so a
// private-chat player can still submit moves.
func (d *Dispatcher) passSessionGate(ctx context.Context, cfg BotConfig, descriptor *command.Descriptor,
	msg *domain.Message) bool {
	sess := d.sessions.Get(ctx, msg.ChatID, msg.UserKey())
	if sess == nil {
		return true
	}

	if d.games != nil {
		if family, ok := d.games.Family(sess.Kind); ok && family == strings.ToLower(descriptor.Name) {
			return true
		}
	}

	d.reply(ctx, msg, cfg.Messages.Busy)

	return false
}

// invoke runs the handler inside the single catch-all boundary. The handler
// replies for its own user-level outcomes; a returned error or panic means
// no reply was sent, so exactly one error reply goes out here.
func (d *Dispatcher) invoke(ctx context.Context, cfg BotConfig, descriptor *command.Descriptor,
	args []string, msg *domain.Message, l zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.sender.SendAction(ctx, msg.ChatID, domain.Typing)
	defer d.sender.SendAction(ctx, msg.ChatID, domain.Available)

	handler := d.registry.Instantiate(descriptor)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return handler.Execute(ctx, args, msg)
	}()
	if err != nil {
		l.Error().Err(err).Msg("command handler failed")
		d.reply(ctx, msg, cfg.Messages.Error)
		return
	}

	l.Debug().Msg("command handled")
}

func (d *Dispatcher) handleBuiltin(ctx context.Context, cfg BotConfig, cmdToken string, msg *domain.Message) bool {
	switch cmdToken {
	case "help":
		d.reply(ctx, msg, d.renderHelp(cfg, false))
	case "games":
		d.reply(ctx, msg, d.renderHelp(cfg, true))
	case "stop":
		d.stopSession(ctx, msg)
	case "stats":
		d.renderStats(ctx, cfg, msg)
	default:
		return false
	}

	return true
}

// stopSession ends the caller's current session, whatever feature owns it.
// Game sessions are left to the game commands' own stop/leave flows; this
// builtin only clears and confirms.
func (d *Dispatcher) stopSession(ctx context.Context, msg *domain.Message) {
	sess := d.sessions.Get(ctx, msg.ChatID, msg.UserKey())
	if sess == nil {
		d.reply(ctx, msg, "you have no active session")
		return
	}

	d.sessions.Clear(ctx, msg.ChatID, msg.UserKey())
	d.reply(ctx, msg, fmt.Sprintf("your %s session was ended", sess.Kind))
}

func (d *Dispatcher) renderHelp(cfg BotConfig, gamesOnly bool) string {
	descriptors := d.registry.List()
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })

	sb := &strings.Builder{}
	if gamesOnly {
		sb.WriteString("Available games:\n")
	} else {
		sb.WriteString("Available commands:\n")
	}

	for _, descriptor := range descriptors {
		if gamesOnly && descriptor.Category != domain.CategoryGame {
			continue
		}
		if descriptor.Disabled {
			continue
		}

		fmt.Fprintf(sb, "%s%s", cfg.Prefix, descriptor.Name)
		if len(descriptor.Aliases) > 0 {
			fmt.Fprintf(sb, " (%s)", strings.Join(descriptor.Aliases, ", "))
		}
		if descriptor.Description != "" {
			fmt.Fprintf(sb, " — %s", descriptor.Description)
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (d *Dispatcher) renderStats(ctx context.Context, cfg BotConfig, msg *domain.Message) {
	if !d.roles.Has(msg.UserID, domain.RoleAdmin) {
		d.reply(ctx, msg, cfg.Messages.Denied)
		return
	}

	counts, err := d.stats.All(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load usage statistics")
		d.reply(ctx, msg, cfg.Messages.Error)
		return
	}

	totals := make(map[string]int)
	for _, c := range counts {
		totals[c.Command] += c.Count
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return totals[names[i]] > totals[names[j]] })

	sb := &strings.Builder{}
	sb.WriteString("Command usage:\n")
	for _, name := range names {
		fmt.Fprintf(sb, "%s: %d\n", name, totals[name])
	}
	if len(names) == 0 {
		sb.WriteString("no usage recorded yet")
	}

	d.reply(ctx, msg, strings.TrimRight(sb.String(), "\n"))
}

func (d *Dispatcher) reply(ctx context.Context, msg *domain.Message, text string) {
	if _, err := d.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, text); err != nil {
		log.Error().Err(err).Int64("chatId", msg.ChatID).Msg(domain.ErrSendingReplyFailed.Error())
	}
}
