package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/redbutton-labs/persuasion-engine/internal/engine"
)

// ResetHandler is the operator surface for starting a player's round over.
// Route: POST /v1/reset/{player_id}
type ResetHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewResetHandler(engine *engine.Engine, logger *slog.Logger) *ResetHandler {
	return &ResetHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for reset endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
		h.encode(w, ErrorResponse{Error: "Method not allowed. Only POST is supported."})
		return
	}

	playerID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/reset"), "/")
	if playerID == "" {
		h.logger.Warn("Reset request without player ID")
		w.WriteHeader(http.StatusBadRequest)
		h.encode(w, ErrorResponse{Error: "Player ID is required."})
		return
	}
	if strings.Contains(playerID, "/") {
		h.logger.Warn("Reset request with malformed player ID", "path", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		h.encode(w, ErrorResponse{Error: "Player ID must not contain slashes."})
		return
	}

	if err := h.engine.ResetRound(r.Context(), playerID); err != nil {
		h.logger.Error("Error resetting round", "player_id", playerID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		h.encode(w, ErrorResponse{Error: "Failed to reset round."})
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

func (h *ResetHandler) encode(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding reset response", "error", err)
	}
}
