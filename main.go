package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"gamebot/internal/adapters/generator"
	"gamebot/internal/adapters/sender"
	"gamebot/internal/adapters/store"
	"gamebot/internal/adapters/words"
	"gamebot/internal/core/domain"
	"gamebot/internal/core/domain/command"
	"gamebot/internal/core/domain/commands"
	"gamebot/internal/core/domain/games"
	"gamebot/internal/core/port"
	"gamebot/internal/core/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	log.Info().Msg("starting gamebot...")

	viper.AddConfigPath(".")
	viper.SetConfigType("toml")

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	var logLevel zerolog.Level

	switch viper.GetString("bot.log_level") {
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var durable port.DocumentStore
	var leaderboard port.Leaderboard
	var stats port.UsageStats

	sqlStore, err := store.NewSQLiteStore(ctx, viper.GetString("store.path"))
	if err != nil {
		log.Warn().Err(err).Msg("durable store unavailable, continuing without persistence")
		leaderboard = &noopLeaderboard{}
		stats = &noopStats{}
	} else {
		defer sqlStore.Close()
		durable = sqlStore
		leaderboard = sqlStore
		stats = sqlStore
	}

	sessions := service.NewSessionStore(ctx, durable,
		viper.GetDuration("session.ttl"), viper.GetInt("session.max_per_chat"))
	cooldowns := service.NewCooldownTracker(ctx)

	roles, err := service.NewRoles()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load role configuration")
	}

	transport := sender.NewTelegramTransport()

	wordList := words.NewList(ctx, viper.GetString("hangman.word_list_url"))
	hangmanRules := games.NewHangman(wordList)
	rpsRules := games.NewRPS()
	engine := games.NewEngine(sessions, leaderboard, transport, hangmanRules, rpsRules)
	engine.Recover(ctx)

	convoTimeout := viper.GetDuration("chat.context_timeout")
	if convoTimeout <= 0 {
		convoTimeout = 15 * time.Minute
	}
	convos := commands.NewConversations(convoTimeout)
	orGenerator := generator.NewOpenRouterGenerator(
		viper.GetString("openrouter.api_key"),
		viper.GetString("openrouter.model"),
		viper.GetString("chat.system_prompt"))

	// the admin command reloads dispatcher config; the factory closure only
	// runs after the dispatcher below is constructed
	var dispatcher *service.Dispatcher

	registry := &command.Registry{}
	registry.Register(&command.Descriptor{
		Name:        "hangman",
		Aliases:     []string{"hm"},
		Description: "word-guessing game, solo or multiplayer",
		Category:    domain.CategoryGame,
		Factory: func() port.Command {
			return commands.NewHangmanCommand(engine, hangmanRules, transport)
		},
	})
	registry.Register(&command.Descriptor{
		Name:        "rps",
		Description: "rock-paper-scissors, solo or multiplayer",
		Category:    domain.CategoryGame,
		Factory: func() port.Command {
			return commands.NewRPSCommand(engine, rpsRules, transport)
		},
	})
	registry.Register(&command.Descriptor{
		Name:        "ai",
		Description: "chat with the bot",
		Category:    domain.CategoryGeneral,
		Cooldown:    time.Minute,
		MaxUses:     5,
		Factory: func() port.Command {
			return commands.NewAICommand(orGenerator, transport, convos)
		},
	})
	registry.Register(&command.Descriptor{
		Name:        "leaderboard",
		Aliases:     []string{"top"},
		Description: "top players per game",
		Category:    domain.CategoryGeneral,
		Factory: func() port.Command {
			return commands.NewLeaderboardCommand(leaderboard, transport)
		},
	})
	registry.Register(&command.Descriptor{
		Name:          "admin",
		Description:   "enable/disable commands, reset cooldowns",
		Category:      domain.CategoryAdmin,
		RequiredRoles: []domain.Role{domain.RoleAdmin},
		Factory: func() port.Command {
			return commands.NewAdminCommand(registry, cooldowns, dispatcher, transport)
		},
	})
	registry.Register(&command.Descriptor{
		Name:        "ping",
		Description: "check that I'm alive",
		Category:    domain.CategoryUtility,
		Factory: func() port.Command {
			return commands.NewPingCommand(transport)
		},
	})

	handlerTimeout := viper.GetDuration("handler.timeout")
	if handlerTimeout <= 0 {
		handlerTimeout = 2 * time.Minute
	}

	dispatcher = service.NewDispatcher(registry, sessions, cooldowns, roles, stats,
		transport, engine, handlerTimeout)

	supervisor := service.NewSupervisor(transport, dispatcher.Dispatch)

	log.Info().Msg("bot listening")
	if err := supervisor.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("supervisor stopped")
	}
}

type noopLeaderboard struct{}

func (n *noopLeaderboard) UserStat(context.Context, string, string) (int, bool, error) {
	return 0, false, nil
}

func (n *noopLeaderboard) UpdateUserStat(context.Context, string, string, string, int) error {
	return nil
}

func (n *noopLeaderboard) TopN(context.Context, string, int) ([]domain.RankedStat, error) {
	return nil, nil
}

type noopStats struct{}

func (n *noopStats) Increment(context.Context, string, string) error  { return nil }
func (n *noopStats) All(context.Context) ([]domain.UsageCount, error) { return nil, nil }
