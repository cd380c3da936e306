package port

import (
	"context"
	"gamebot/internal/core/domain"
)

type TextGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (string, error)
}

// WordSource supplies words for the word-guessing game.
type WordSource interface {
	RandomWord(ctx context.Context) (string, error)
}
