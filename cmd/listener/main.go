package main

import (
	"context"
	stdlog "log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/redbutton-labs/persuasion-engine/internal/config"
	"github.com/redbutton-labs/persuasion-engine/internal/engine"
	"github.com/redbutton-labs/persuasion-engine/internal/listener"
	"github.com/redbutton-labs/persuasion-engine/internal/llm"
	"github.com/redbutton-labs/persuasion-engine/internal/logger"
	"github.com/redbutton-labs/persuasion-engine/internal/storage"
	"github.com/redbutton-labs/persuasion-engine/pkg/scoring"
)

// Standalone chain listener: watches the submission contract and runs every
// observed attempt through the engine, without serving HTTP.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Persuasion Engine listener",
		"rpc_url", cfg.RPCURL,
		"contract", cfg.ContractAddress,
		"poll_interval_seconds", cfg.PollIntervalSecs)

	if cfg.OpenAIAPIKey == "" {
		log.Error("OpenAI API key is required")
		os.Exit(1)
	}

	source, err := listener.NewRPCSource(cfg.RPCURL, cfg.ContractAddress)
	if err != nil {
		log.Error("Failed to initialize event source", "error", err)
		os.Exit(1)
	}

	audit, err := listener.OpenAuditLog(cfg.EventLogPath)
	if err != nil {
		log.Error("Failed to open event audit log", "error", err)
		os.Exit(1)
	}
	defer audit.Close()

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store := storage.Open(storageCtx, cfg.RedisURL, log)
	storageCancel()

	generator := llm.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, cfg.Temperature)
	responder := llm.NewResponder(generator, log)
	scorer := scoring.NewScorer(rand.New(rand.NewSource(time.Now().UnixNano())))
	eng := engine.New(store, responder, scorer, cfg.GateThreshold, log)

	l := listener.New(source, eng, audit,
		time.Duration(cfg.PollIntervalSecs)*time.Second, log)

	go func() {
		if err := l.Start(); err != nil {
			log.Error("Listener stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Listener is shutting down...")
	l.Stop()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Listener exited")
}
