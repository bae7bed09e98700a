package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/redbutton-labs/persuasion-engine/internal/config"
	"github.com/redbutton-labs/persuasion-engine/internal/engine"
	"github.com/redbutton-labs/persuasion-engine/internal/llm"
	"github.com/redbutton-labs/persuasion-engine/internal/storage"
	"github.com/redbutton-labs/persuasion-engine/pkg/auth"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
	"github.com/redbutton-labs/persuasion-engine/pkg/scoring"
)

// One-shot agent: runs a single interaction against the configured backends
// and prints exactly one JSON result object to stdout. Exit code 1 when the
// interaction fails.
func main() {
	player := flag.String("player", "", "player id (address)")
	message := flag.String("message", "", "persuasion attempt; empty queries the score")
	signature := flag.String("signature", "", "signature over the message")
	submission := flag.String("submission", "", "submission id (transaction hash)")
	block := flag.Int64("block", 0, "block number of the submission")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	// Stdout carries only the result object; everything else goes to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	var verifier auth.Verifier
	if cfg.VerifierSecret != "" {
		verifier, err = auth.NewStaticVerifier(cfg.VerifierSecret)
		if err != nil {
			log.Error("Failed to initialize verifier", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("No verifier secret configured, accepting all signatures")
		verifier = auth.AllowAll{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	store := storage.Open(ctx, cfg.RedisURL, log)
	defer store.Close()

	var gen llm.Generator
	if cfg.OpenAIAPIKey != "" {
		gen = llm.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, cfg.Temperature)
	} else {
		log.Warn("No OpenAI API key configured, replies come from the canned generator")
	}
	responder := llm.NewResponder(gen, log)
	scorer := scoring.NewScorer(rand.New(rand.NewSource(time.Now().UnixNano())))
	eng := engine.New(store, responder, scorer, cfg.GateThreshold, log)

	req := game.InteractionRequest{
		PlayerID:     *player,
		Message:      *message,
		Signature:    *signature,
		SubmissionID: *submission,
		BlockNumber:  *block,
	}

	if err := authorize(verifier, req); err != nil {
		log.Warn("Signature verification failed", "player_id", req.PlayerID, "error", err)
		emit(log, game.InteractionResult{
			Success: false,
			Score:   eng.Score(ctx, req.PlayerID).Score,
			Error:   err.Error(),
		})
		os.Exit(1)
	}

	result := eng.Interact(ctx, req)

	emit(log, result)
	if !result.Success {
		os.Exit(1)
	}
}

// authorize applies the same gate as the HTTP API: a non-empty message must
// carry a valid signature; score queries have nothing to sign.
func authorize(v auth.Verifier, req game.InteractionRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return nil
	}
	ok, err := v.Verify(req.Message, req.Signature, req.PlayerID)
	if err != nil {
		return fmt.Errorf("signature check failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("invalid signature for player")
	}
	return nil
}

func emit(log *slog.Logger, result game.InteractionResult) {
	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		log.Error("Failed to encode result", "error", err)
		os.Exit(1)
	}
}
