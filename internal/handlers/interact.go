package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/redbutton-labs/persuasion-engine/internal/engine"
	"github.com/redbutton-labs/persuasion-engine/pkg/auth"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// InteractHandler handles persuasion attempts
type InteractHandler struct {
	engine   *engine.Engine
	verifier auth.Verifier
	logger   *slog.Logger
}

// NewInteractHandler creates a new interact handler
func NewInteractHandler(engine *engine.Engine, verifier auth.Verifier, logger *slog.Logger) *InteractHandler {
	return &InteractHandler{
		engine:   engine,
		verifier: verifier,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for player interactions
func (h *InteractHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Only allow POST method
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for interact endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusMethodNotAllowed)
		h.encode(w, ErrorResponse{Error: "Method not allowed. Only POST is supported."})
		return
	}

	var req game.InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		h.encode(w, ErrorResponse{Error: "Invalid request body. Expected JSON with 'player_id', 'message' and 'submission_id' fields."})
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.Warn("Invalid interaction request", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		h.encode(w, ErrorResponse{Error: err.Error()})
		return
	}

	// Score queries carry no payload to sign; everything else must be
	// signed by the submitting player.
	if strings.TrimSpace(req.Message) != "" {
		ok, err := h.verifier.Verify(req.Message, req.Signature, req.PlayerID)
		if err != nil {
			h.logger.Warn("Signature verification failed", "player_id", req.PlayerID, "error", err)
		}
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			h.encode(w, ErrorResponse{Error: "Invalid signature for player."})
			return
		}
	}

	h.logger.Info("Interact endpoint accessed",
		"player_id", req.PlayerID,
		"submission_id", req.SubmissionID,
		"remote_addr", r.RemoteAddr)

	result := h.engine.Interact(r.Context(), req)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	w.WriteHeader(status)
	h.encode(w, result)
}

func (h *InteractHandler) encode(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding interact response", "error", err)
	}
}
