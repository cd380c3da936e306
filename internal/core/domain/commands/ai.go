package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Conversations holds per-chat LLM context with an inactivity timeout. It is
// shared across AICommand instances, which are otherwise stateless.
type Conversations struct {
	mutex   sync.Mutex
	byChat  map[int64]*conversation
	timeout time.Duration
}

type conversation struct {
	messages []domain.Prompt
	lastUsed time.Time
}

func NewConversations(timeout time.Duration) *Conversations {
	return &Conversations{
		byChat:  make(map[int64]*conversation),
		timeout: timeout,
	}
}

func (c *Conversations) appendAndSnapshot(chatID int64, prompt domain.Prompt) []domain.Prompt {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	convo, ok := c.byChat[chatID]
	if !ok || time.Since(convo.lastUsed) > c.timeout {
		convo = &conversation{}
		c.byChat[chatID] = convo
	}

	convo.messages = append(convo.messages, prompt)
	convo.lastUsed = time.Now()

	snapshot := make([]domain.Prompt, len(convo.messages))
	copy(snapshot, convo.messages)

	return snapshot
}

func (c *Conversations) appendResponse(chatID int64, response string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if convo, ok := c.byChat[chatID]; ok {
		convo.messages = append(convo.messages, domain.Prompt{Author: domain.System, Prompt: response})
	}
}

// Clear drops the context for one chat.
func (c *Conversations) Clear(chatID int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.byChat, chatID)
}

// AICommand is the conversational LLM command. Context accumulates per chat
// until the inactivity timeout; "ai clear" resets it.
type AICommand struct {
	generator port.TextGenerator
	sender    port.Sender
	convos    *Conversations
}

func NewAICommand(generator port.TextGenerator, sender port.Sender, convos *Conversations) *AICommand {
	return &AICommand{generator: generator, sender: sender, convos: convos}
}

func (a *AICommand) Execute(ctx context.Context, args []string, msg *domain.Message) error {
	if len(args) == 1 && strings.EqualFold(args[0], "clear") {
		a.convos.Clear(msg.ChatID)
		_, err := a.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, "conversation context cleared")
		return err
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		_, err := a.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, "please include a prompt")
		return err
	}

	prompts := a.convos.appendAndSnapshot(msg.ChatID, domain.Prompt{
		Author: domain.User,
		Prompt: msg.Username + ": " + prompt,
	})

	response, err := a.generator.GenerateFromPrompt(ctx, prompts)
	if err != nil {
		log.Error().Err(err).Int64("chatId", msg.ChatID).Msg("failed to generate reply")
		_, sendErr := a.sender.SendMessageReply(ctx, msg.ChatID, msg.ID,
			"I couldn't come up with a reply, please try again later")
		if sendErr != nil {
			return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, sendErr)
		}
		return nil
	}

	a.convos.appendResponse(msg.ChatID, response)

	_, err = a.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, response)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
