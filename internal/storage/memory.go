package storage

import (
	"context"
	"sync"
	"time"

	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

// MemoryStorage is the process-local fallback backend. It satisfies the
// same contract as RedisStorage so the engine can degrade in place when
// the durable backend is unreachable. State does not survive a restart.
type MemoryStorage struct {
	mu        sync.RWMutex
	scores    map[string]int
	responses map[string]game.ResponseRecord
}

// Ensure MemoryStorage implements Storage interface
var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		scores:    make(map[string]int),
		responses: make(map[string]game.ResponseRecord),
	}
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) StoreResponse(ctx context.Context, submissionID string, rec game.ResponseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// First write wins; replays are a successful no-op.
	if _, exists := m.responses[submissionID]; exists {
		return nil
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Exists = true
	m.responses[submissionID] = rec
	return nil
}

func (m *MemoryStorage) GetResponse(ctx context.Context, submissionID string) (*game.ResponseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.responses[submissionID]
	if !exists {
		return nil, nil
	}
	copied := rec
	return &copied, nil
}

func (m *MemoryStorage) GetScore(ctx context.Context, playerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	score, exists := m.scores[playerID]
	if !exists {
		return game.DefaultScore, nil
	}
	return score, nil
}

func (m *MemoryStorage) SetScore(ctx context.Context, playerID string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scores[playerID] = game.ClampScore(score)
	return nil
}
