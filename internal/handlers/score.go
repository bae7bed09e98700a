package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/redbutton-labs/persuasion-engine/internal/engine"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

// ScoreResponse is the read-only view of a player's game state.
type ScoreResponse struct {
	PlayerID string    `json:"player_id"`
	Score    int       `json:"score"`
	Gate     game.Gate `json:"gate"`
	GameWon  bool      `json:"game_won"`
}

// ScoreHandler serves score lookups.
// Route: GET /v1/score/{player_id}
type ScoreHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewScoreHandler(engine *engine.Engine, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *ScoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for score endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
		h.encode(w, ErrorResponse{Error: "Method not allowed. Only GET is supported."})
		return
	}

	playerID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/score"), "/")
	if playerID == "" {
		h.logger.Warn("Score request without player ID")
		w.WriteHeader(http.StatusBadRequest)
		h.encode(w, ErrorResponse{Error: "Player ID is required."})
		return
	}
	if strings.Contains(playerID, "/") {
		h.logger.Warn("Score request with malformed player ID", "path", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		h.encode(w, ErrorResponse{Error: "Player ID must not contain slashes."})
		return
	}

	result := h.engine.Score(r.Context(), playerID)
	gate := h.engine.Gate(playerID)

	w.WriteHeader(http.StatusOK)
	h.encode(w, ScoreResponse{
		PlayerID: playerID,
		Score:    result.Score,
		Gate:     gate,
		GameWon:  gate.Unlocked(),
	})
}

func (h *ScoreHandler) encode(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding score response", "error", err)
	}
}
