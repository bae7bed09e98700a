package storage

import (
	"context"
	"log/slog"
	"time"
)

const (
	connectAttempts = 3
	connectPause    = 500 * time.Millisecond
)

// Open connects to the durable backend, retrying a few times before
// degrading to the in-memory fallback. It never fails: callers always get
// a working Storage, possibly a non-durable one.
func Open(ctx context.Context, redisURL string, logger *slog.Logger) Storage {
	rs := NewRedisStorage(redisURL, logger)

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if lastErr = rs.Ping(ctx); lastErr == nil {
			logger.Info("Connected to Redis storage", "url", redisURL)
			return rs
		}
		logger.Warn("Redis not reachable",
			"url", redisURL,
			"attempt", attempt,
			"error", lastErr)

		if attempt < connectAttempts {
			select {
			case <-ctx.Done():
				attempt = connectAttempts
			case <-time.After(connectPause):
			}
		}
	}

	if err := rs.Close(); err != nil {
		logger.Debug("Error closing unreachable Redis client", "error", err)
	}

	logger.Warn("Durable storage unavailable, degrading to in-memory backend",
		"error", lastErr)
	return NewMemoryStorage()
}
