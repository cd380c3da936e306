package port

import (
	"context"
	"gamebot/internal/core/domain"
)

type Sender interface {
	// SendMessage sends plain text to a chat and returns the sent message ID.
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	// SendMessageReply sends text as a reply to a specific message.
	SendMessageReply(ctx context.Context, chatID int64, messageID int, text string) (int, error)
	// SendAction transmits a presence indicator (typing etc.) best effort.
	SendAction(ctx context.Context, chatID int64, action domain.Action)
}

type Transport interface {
	Sender
	// Run connects and pumps inbound events into onMessage until the
	// connection drops or ctx is cancelled. A terminal logout is reported as
	// domain.ErrLoggedOut; any other error is a retryable disconnect.
	Run(ctx context.Context, onMessage func(ctx context.Context, message *domain.Message)) error
	// ResetCredentials discards the current auth state so the next Run
	// performs a fresh login.
	ResetCredentials(ctx context.Context) error
}
