package port

import (
	"context"
	"gamebot/internal/core/domain"
)

type Command interface {
	// Execute runs the command for one inbound message. args are the
	// whitespace-split tokens after the command token itself. Errors escaping
	// Execute are converted by the dispatcher into the generic error reply.
	Execute(ctx context.Context, args []string, message *domain.Message) error
}
