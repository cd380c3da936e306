package commands

import (
	"context"
	"fmt"

	"gamebot/internal/core/domain"
	"gamebot/internal/core/port"
)

type PingCommand struct {
	sender port.Sender
}

func NewPingCommand(sender port.Sender) *PingCommand {
	return &PingCommand{sender: sender}
}

func (p *PingCommand) Execute(ctx context.Context, _ []string, msg *domain.Message) error {
	if _, err := p.sender.SendMessageReply(ctx, msg.ChatID, msg.ID, "pong"); err != nil {
		return fmt.Errorf("%s: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
