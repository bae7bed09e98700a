package main

import (
	"context"
	stdlog "log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/redbutton-labs/persuasion-engine/internal/config"
	"github.com/redbutton-labs/persuasion-engine/internal/engine"
	"github.com/redbutton-labs/persuasion-engine/internal/handlers"
	"github.com/redbutton-labs/persuasion-engine/internal/listener"
	"github.com/redbutton-labs/persuasion-engine/internal/llm"
	"github.com/redbutton-labs/persuasion-engine/internal/logger"
	"github.com/redbutton-labs/persuasion-engine/internal/middleware"
	"github.com/redbutton-labs/persuasion-engine/internal/storage"
	"github.com/redbutton-labs/persuasion-engine/pkg/auth"
	"github.com/redbutton-labs/persuasion-engine/pkg/scoring"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Persuasion Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_name", cfg.ModelName,
		"gate_threshold", cfg.GateThreshold)

	if cfg.OpenAIAPIKey == "" {
		log.Error("OpenAI API key is required")
		os.Exit(1)
	}
	generator := llm.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, cfg.Temperature)
	responder := llm.NewResponder(generator, log)

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store := storage.Open(storageCtx, cfg.RedisURL, log)
	storageCancel()

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

	scorer := scoring.NewScorer(rand.New(rand.NewSource(time.Now().UnixNano())))
	eng := engine.New(store, responder, scorer, cfg.GateThreshold, log)

	// The API can run the chain listener in-process when RPC settings are
	// present; most deployments run cmd/listener separately instead.
	var chainListener *listener.Listener
	if cfg.RPCURL != "" {
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

		chainListener = listener.New(source, eng, audit,
			time.Duration(cfg.PollIntervalSecs)*time.Second, log)
		go func() {
			if err := chainListener.Start(); err != nil {
				log.Error("Listener stopped", "error", err)
			}
		}()
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	interactHandler := handlers.NewInteractHandler(eng, verifier, log)
	mux.Handle("/v1/interact", interactHandler)

	scoreHandler := handlers.NewScoreHandler(eng, log)
	mux.Handle("/v1/score/", scoreHandler)

	resetHandler := handlers.NewResetHandler(eng, log)
	mux.Handle("/v1/reset/", resetHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if chainListener != nil {
		chainListener.Stop()
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
