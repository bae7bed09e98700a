package logger

import (
	"log/slog"
	"os"

	"github.com/redbutton-labs/persuasion-engine/internal/config"
)

// Setup configures the process logger: JSON output in production, text
// otherwise. The returned logger is also installed as the slog default.
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
