// Package engine orchestrates one persuasion interaction: audit-first
// storage of the submission, response generation, scoring, score
// persistence, and the reward gate. Every step is fault-tolerant; the
// caller always receives a well-formed result.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/redbutton-labs/persuasion-engine/internal/llm"
	"github.com/redbutton-labs/persuasion-engine/internal/storage"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
	"github.com/redbutton-labs/persuasion-engine/pkg/scoring"
)

// Engine composes storage, the response pipeline, the scorer, and the
// per-player reward gate.
type Engine struct {
	storage   storage.Storage
	responder *llm.Responder
	scorer    *scoring.Scorer
	threshold int
	logger    *slog.Logger

	// Gates are engine-local round state; they reset with the process,
	// scores do not.
	gateMu sync.Mutex
	gates  map[string]game.Gate
}

// New creates an engine. threshold is the score required to advance the
// reward gate.
func New(store storage.Storage, responder *llm.Responder, scorer *scoring.Scorer, threshold int, logger *slog.Logger) *Engine {
	return &Engine{
		storage:   store,
		responder: responder,
		scorer:    scorer,
		threshold: threshold,
		logger:    logger,
		gates:     make(map[string]game.Gate),
	}
}

// Interact processes one player submission end to end. It never returns
// an error and never panics through: faults degrade to failure or
// partial-success results carrying the last known score.
//
// Signature verification is the caller's job and must happen before this
// method, except for the empty-message score query, which mutates nothing.
func (e *Engine) Interact(ctx context.Context, req game.InteractionRequest) (res game.InteractionResult) {
	current := game.DefaultScore

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Interaction panicked", "player_id", req.PlayerID, "panic", r)
			res = game.InteractionResult{
				Success: false,
				Score:   current,
				Error:   "internal error",
			}
		}
	}()

	if req.PlayerID == "" {
		return game.InteractionResult{
			Success: false,
			Score:   current,
			Error:   "player_id is required",
		}
	}

	if score, err := e.storage.GetScore(ctx, req.PlayerID); err != nil {
		e.logger.Warn("Score read failed, using default", "player_id", req.PlayerID, "error", err)
	} else {
		current = score
	}

	// Empty message is the score query: reply without recording or
	// scoring anything.
	if strings.TrimSpace(req.Message) == "" {
		return game.InteractionResult{
			Success: true,
			Message: e.responder.Respond(ctx, "", current),
			Score:   current,
		}
	}

	if req.SubmissionID == "" {
		return game.InteractionResult{
			Success: false,
			Score:   current,
			Error:   "submission_id is required",
		}
	}

	// The submission must be durably recorded before it is answered or
	// scored; without the audit record the interaction stops here.
	rec := game.ResponseRecord{
		PlayerID:    req.PlayerID,
		Text:        req.Message,
		BlockNumber: req.BlockNumber,
	}
	if err := withRetry(ctx, func() error {
		return e.storage.StoreResponse(ctx, req.SubmissionID, rec)
	}); err != nil {
		e.logger.Error("Failed to record submission", "submission_id", req.SubmissionID, "error", err)
		return game.InteractionResult{
			Success: false,
			Score:   current,
			Error:   "failed to record submission",
		}
	}

	reply := e.responder.Respond(ctx, req.Message, current)

	scored := e.scorer.Evaluate(req.Message, current)

	finalScore := scored.NewScore
	if err := withRetry(ctx, func() error {
		return e.storage.SetScore(ctx, req.PlayerID, scored.NewScore)
	}); err != nil {
		// Partial success: the player still gets the reply, the score
		// simply doesn't move this round.
		e.logger.Error("Score update failed, score unchanged",
			"player_id", req.PlayerID, "error", err)
		finalScore = current
	}

	gate, reached, won := e.advanceGate(req.PlayerID, finalScore)

	e.logger.Info("Interaction processed",
		"player_id", req.PlayerID,
		"submission_id", req.SubmissionID,
		"score", finalScore,
		"score_change", finalScore-current,
		"gate", gate,
		"threat", scored.Threat)

	return game.InteractionResult{
		Success:          true,
		Message:          reply,
		Score:            finalScore,
		ScoreChange:      finalScore - current,
		ThresholdReached: reached,
		GameWon:          won,
	}
}

// Score answers the non-mutating score query for a player.
func (e *Engine) Score(ctx context.Context, playerID string) game.InteractionResult {
	score, err := e.storage.GetScore(ctx, playerID)
	if err != nil {
		e.logger.Warn("Score read failed, using default", "player_id", playerID, "error", err)
		score = game.DefaultScore
	}
	return game.InteractionResult{
		Success: true,
		Score:   score,
	}
}

// Gate returns the player's current reward gate state.
func (e *Engine) Gate(playerID string) game.Gate {
	e.gateMu.Lock()
	defer e.gateMu.Unlock()
	if g, ok := e.gates[playerID]; ok {
		return g
	}
	return game.GateLocked
}

// ResetRound returns a player to the starting score with a locked gate.
// Called by the operator after a reward is granted.
func (e *Engine) ResetRound(ctx context.Context, playerID string) error {
	if err := withRetry(ctx, func() error {
		return e.storage.SetScore(ctx, playerID, game.DefaultScore)
	}); err != nil {
		return err
	}

	e.gateMu.Lock()
	e.gates[playerID] = game.GateLocked
	e.gateMu.Unlock()

	e.logger.Info("Round reset", "player_id", playerID)
	return nil
}

// advanceGate moves the player's gate at most one step forward for the
// observed score.
func (e *Engine) advanceGate(playerID string, score int) (game.Gate, bool, bool) {
	e.gateMu.Lock()
	defer e.gateMu.Unlock()

	g, ok := e.gates[playerID]
	if !ok {
		g = game.GateLocked
	}
	next, reached, won := g.Advance(score, e.threshold)
	e.gates[playerID] = next
	return next, reached, won
}
