package commands

import (
	"context"
	"fmt"
	"strings"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/domain/command"
	"gamebot/internal/core/port"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// CooldownResetter is the admin override on the cooldown tracker.
type CooldownResetter interface {
	Reset(userKey, command string)
}

// ConfigReloader refreshes dispatcher configuration from the config source.
type ConfigReloader interface {
	Reload()
}

// AdminCommand toggles commands on and off, clears cooldowns and reloads
// configuration. Role gating happens in the dispatcher via the descriptor's
// required roles.
type AdminCommand struct {
	registry  *command.Registry
	cooldowns CooldownResetter
	reloader  ConfigReloader
	sender    port.Sender
}

func NewAdminCommand(registry *command.Registry, cooldowns CooldownResetter, reloader ConfigReloader,
	sender port.Sender) *AdminCommand {
	return &AdminCommand{registry: registry, cooldowns: cooldowns, reloader: reloader, sender: sender}
}

func (a *AdminCommand) Execute(ctx context.Context, args []string, msg *domain.Message) error {
	if len(args) == 0 {
		return a.reply(ctx, msg, "usage: admin <disable|enable|cooldownreset|reload> ...")
	}

	switch strings.ToLower(args[0]) {
	case "disable":
		if len(args) < 2 {
			return a.reply(ctx, msg, "usage: admin disable <command> [reason]")
		}
		return a.setDisabled(ctx, msg, args[1], true, strings.Join(args[2:], " "))
	case "enable":
		if len(args) < 2 {
			return a.reply(ctx, msg, "usage: admin enable <command>")
		}
		return a.setDisabled(ctx, msg, args[1], false, "")
	case "cooldownreset":
		if len(args) < 3 {
			return a.reply(ctx, msg, "usage: admin cooldownreset <user id> <command>")
		}
		a.cooldowns.Reset(args[1], strings.ToLower(args[2]))
		log.Info().Str("userKey", args[1]).Str("command", args[2]).Msg("cooldown reset by admin")
		return a.reply(ctx, msg, fmt.Sprintf("cooldown for %s on %s cleared", args[1], args[2]))
	case "reload":
		if err := viper.ReadInConfig(); err != nil {
			log.Error().Err(err).Msg("failed to re-read config file")
			return a.reply(ctx, msg, "could not re-read the config file")
		}
		a.reloader.Reload()
		return a.reply(ctx, msg, "configuration reloaded")
	}

	return a.reply(ctx, msg, "usage: admin <disable|enable|cooldownreset|reload> ...")
}

func (a *AdminCommand) setDisabled(ctx context.Context, msg *domain.Message, name string, disabled bool,
	reason string) error {
	descriptor, ok := a.registry.Get(name)
	if !ok {
		return a.reply(ctx, msg, fmt.Sprintf("no such command: %s", name))
	}

	descriptor.Disabled = disabled
	descriptor.DisabledReason = reason

	if disabled {
		log.Info().Str("command", descriptor.Name).Str("reason", reason).Msg("command disabled by admin")
		return a.reply(ctx, msg, fmt.Sprintf("%s disabled", descriptor.Name))
	}

	log.Info().Str("command", descriptor.Name).Msg("command enabled by admin")

	return a.reply(ctx, msg, fmt.Sprintf("%s enabled", descriptor.Name))
}

func (a *AdminCommand) reply(ctx context.Context, msg *domain.Message, text string) error {
	if _, err := a.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, text); err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
