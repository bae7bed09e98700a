package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redbutton-labs/persuasion-engine/pkg/persona"
)

// Responder is the response-generation pipeline: primary generator, output
// validation, and the deterministic local fallback. Respond is total: it
// always yields a persona-consistent reply, regardless of what the remote
// generator does.
type Responder struct {
	gen      Generator
	fallback persona.Fallback
	logger   *slog.Logger
}

// NewResponder creates a responder around the given primary generator.
func NewResponder(gen Generator, logger *slog.Logger) *Responder {
	return &Responder{
		gen:    gen,
		logger: logger,
	}
}

// Respond produces the agent's reply to a message at the given score.
func (r *Responder) Respond(ctx context.Context, message string, score int) string {
	if strings.TrimSpace(message) == "" {
		// No remote call for silence.
		return persona.EmptyInputReply(score)
	}

	if r.gen == nil {
		// No primary generator configured: local fallback only.
		return r.fallback.Reply(message, score)
	}

	reply, err := r.gen.Generate(ctx, persona.SystemPrompt(score), userPrompt(message, score))
	if err != nil {
		switch {
		case errors.Is(err, ErrRateLimited):
			r.logger.Warn("Primary generator rate limited", "error", err)
			return persona.RateLimitedReply(score)
		case errors.Is(err, ErrUnauthorized):
			r.logger.Error("Primary generator rejected credentials", "error", err)
			return persona.UnauthorizedReply(score)
		default:
			r.logger.Warn("Primary generator unavailable", "error", err)
			return persona.TransportFaultReply(score)
		}
	}

	reply = strings.TrimSpace(reply)
	if err := persona.Validate(reply); err != nil {
		r.logger.Warn("Discarding off-voice reply", "error", err)
		return r.fallback.Reply(message, score)
	}
	if style := persona.StyleScore(reply); style < persona.MinStyleScore {
		r.logger.Warn("Discarding low-style reply", "style_score", style)
		return r.fallback.Reply(message, score)
	}

	return reply
}

func userPrompt(message string, score int) string {
	return fmt.Sprintf("Current persuasion score: %d/100\n\nUser's message: %s", score, message)
}
