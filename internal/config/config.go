package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

// Config is the process configuration, loaded once from the environment
// and passed down explicitly. Nothing in the engine reads the environment
// after startup.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL string `env:"REDIS_URL" envDefault:"localhost:6379"`

	OpenAIAPIKey string  `env:"OPENAI_API_KEY"`
	ModelName    string  `env:"MODEL_NAME" envDefault:"gpt-4o"`
	Temperature  float64 `env:"MODEL_TEMPERATURE" envDefault:"0.9"`

	// GateThreshold is the persuasion score required to advance the
	// reward gate.
	GateThreshold int `env:"GATE_THRESHOLD" envDefault:"100"`

	// VerifierSecret enables the shared-secret signature check. Empty
	// means verification is delegated to the transaction layer.
	VerifierSecret string `env:"VERIFIER_SECRET"`

	// Listener mode settings.
	RPCURL           string `env:"RPC_URL"`
	ContractAddress  string `env:"CONTRACT_ADDRESS"`
	PollIntervalSecs int    `env:"POLL_INTERVAL_SECONDS" envDefault:"2"`
	EventLogPath     string `env:"EVENT_LOG_PATH" envDefault:"event_logs.jsonl"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.GateThreshold < game.MinScore || cfg.GateThreshold > game.MaxScore {
		return nil, fmt.Errorf("gate threshold %d outside [%d,%d]", cfg.GateThreshold, game.MinScore, game.MaxScore)
	}
	return cfg, nil
}

// SlogLevel maps the configured level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
