package sender

import (
	"context"
	"strings"
	"sync"

	"gamebot/internal/core/domain"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// TelegramTransport drives one Telegram bot connection and normalizes
// updates into domain messages. The supervisor owns its lifecycle through
// Run and ResetCredentials.
type TelegramTransport struct {
	mutex  sync.Mutex
	bot    *bot.Bot
	token  string
	selfID int64
}

func NewTelegramTransport() *TelegramTransport {
	return &TelegramTransport{token: viper.GetString("telegram.bot_token")}
}

func (t *TelegramTransport) Run(ctx context.Context, onMessage func(ctx context.Context, message *domain.Message)) error {
	b, err := bot.New(t.token, bot.WithDefaultHandler(t.updateHandler(onMessage)))
	if err != nil {
		if strings.Contains(err.Error(), "Unauthorized") {
			return domain.ErrLoggedOut
		}
		return err
	}

	if me, err := b.GetMe(ctx); err == nil {
		t.mutex.Lock()
		t.selfID = me.ID
		t.mutex.Unlock()
	} else {
		log.Warn().Err(err).Msg("could not resolve own bot identity")
	}

	t.setBot(b)
	defer t.setBot(nil)

	log.Info().Msg("transport connected, listening for updates")
	b.Start(ctx)

	return ctx.Err()
}

// ResetCredentials re-reads the bot token from the config source so the next
// Run performs a fresh login.
func (t *TelegramTransport) ResetCredentials(_ context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.token = viper.GetString("telegram.bot_token")
	log.Info().Msg("transport credentials reset")

	return nil
}

func (t *TelegramTransport) updateHandler(
	onMessage func(ctx context.Context, message *domain.Message)) bot.HandlerFunc {
	return func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		text := update.Message.Text
		if text == "" {
			text = update.Message.Caption
		}
		if text == "" {
			return
		}

		t.mutex.Lock()
		selfID := t.selfID
		t.mutex.Unlock()

		onMessage(ctx, &domain.Message{
			ID:         update.Message.ID,
			ChatID:     update.Message.Chat.ID,
			UserID:     update.Message.From.ID,
			Username:   displayName(update.Message.From),
			Text:       text,
			IsGroup:    update.Message.Chat.Type != models.ChatTypePrivate,
			IsFromSelf: update.Message.From.ID == selfID,
			Raw:        update,
		})
	}
}

func (t *TelegramTransport) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	b, err := t.currentBot()
	if err != nil {
		return 0, err
	}

	sent, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return 0, err
	}

	return sent.ID, nil
}

func (t *TelegramTransport) SendMessageReply(ctx context.Context, chatID int64, messageID int, text string) (int, error) {
	b, err := t.currentBot()
	if err != nil {
		return 0, err
	}

	sent, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
		ReplyParameters: &models.ReplyParameters{
			MessageID: messageID,
			ChatID:    chatID,
		},
	})
	if err != nil {
		return 0, err
	}

	return sent.ID, nil
}

// SendAction transmits a typing indicator best effort. Telegram clears the
// indicator on its own, so Available is a no-op.
func (t *TelegramTransport) SendAction(ctx context.Context, chatID int64, action domain.Action) {
	if action != domain.Typing {
		return
	}

	b, err := t.currentBot()
	if err != nil {
		return
	}

	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	}); err != nil {
		log.Debug().Err(err).Int64("chatId", chatID).Msg("failed to send chat action")
	}
}

func (t *TelegramTransport) setBot(b *bot.Bot) {
	t.mutex.Lock()
	t.bot = b
	t.mutex.Unlock()
}

func (t *TelegramTransport) currentBot() (*bot.Bot, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.bot == nil {
		return nil, domain.ErrSendingReplyFailed
	}

	return t.bot, nil
}

func displayName(user *models.User) string {
	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
