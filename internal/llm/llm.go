package llm

import (
	"context"
	"errors"
)

// Typed generator faults. The responder maps each class to its own
// persona-flavored degradation; none of them propagate past it.
var (
	ErrRateLimited  = errors.New("generator rate limited")
	ErrUnauthorized = errors.New("generator unauthorized")
)

// Generator produces raw text from a system prompt and a user message.
// Implementations are remote services; the deterministic local fallback
// lives in pkg/persona and is not a Generator.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}
