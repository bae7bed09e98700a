package storage

import (
	"context"

	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the backend connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the backend connection
	Close() error
}

// Storage is the persistence contract for player scores and submitted
// responses. The engine never branches on which backend is behind it.
type Storage interface {
	HealthChecker
	Closer

	// StoreResponse records a submitted response under its submission id.
	// The write is idempotent: if the id already exists, the existing
	// record is kept and the call succeeds. An error means a backend
	// I/O fault.
	StoreResponse(ctx context.Context, submissionID string, rec game.ResponseRecord) error

	// GetResponse retrieves a response record by submission id.
	// Returns nil if the record doesn't exist.
	GetResponse(ctx context.Context, submissionID string) (*game.ResponseRecord, error)

	// GetScore returns the player's persuasion score, or the default
	// score if the player has never been seen.
	GetScore(ctx context.Context, playerID string) (int, error)

	// SetScore writes the player's persuasion score, clamped to the
	// valid range.
	SetScore(ctx context.Context, playerID string, score int) error
}
