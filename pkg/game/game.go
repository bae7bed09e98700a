// Package game holds the core types of the persuasion game: player state,
// the reward gate, and the request/result shapes exchanged with the engine.
package game

import (
	"fmt"
	"time"
)

const (
	// DefaultScore is the persuasion score assigned to a player on first contact.
	DefaultScore = 50

	MinScore = 0
	MaxScore = 100

	// DefaultThreshold is the score a player must reach to advance the gate.
	DefaultThreshold = 100
)

// ClampScore bounds a score to the valid [MinScore, MaxScore] range.
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// PlayerState is the persisted per-player game state.
type PlayerState struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Gate     Gate   `json:"gate"`
}

// ResponseRecord is a single submitted player message, keyed externally by
// its submission id (transaction hash). Records are write-once.
type ResponseRecord struct {
	PlayerID    string    `json:"player_id"`
	Text        string    `json:"text"`
	BlockNumber int64     `json:"block_number"`
	CreatedAt   time.Time `json:"created_at"`
	Exists      bool      `json:"exists"`
}

// InteractionRequest is one player attempt at persuading the agent.
type InteractionRequest struct {
	PlayerID     string `json:"player_id"`
	Message      string `json:"message"`
	Signature    string `json:"signature,omitempty"`
	BlockNumber  int64  `json:"block_number,omitempty"`
	SubmissionID string `json:"submission_id"`
}

// Validate checks the fields required before an interaction may mutate
// state. An empty message is a score query and needs no submission id.
func (r *InteractionRequest) Validate() error {
	if r.PlayerID == "" {
		return fmt.Errorf("player_id cannot be empty")
	}
	if r.Message != "" && r.SubmissionID == "" {
		return fmt.Errorf("submission_id cannot be empty")
	}
	return nil
}

// InteractionResult is returned for every interaction. It is always
// well-formed: callers never see a raw error from the engine.
type InteractionResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Score            int    `json:"score"`
	ScoreChange      int    `json:"score_change,omitempty"`
	ThresholdReached bool   `json:"threshold_reached,omitempty"`
	GameWon          bool   `json:"game_won,omitempty"`
	Error            string `json:"error,omitempty"`
}
