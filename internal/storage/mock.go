package storage

import (
	"context"
	"sync"

	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

// MockStorage is an in-memory Storage with injectable faults, for testing
// the engine's retry and degradation paths.
type MockStorage struct {
	mem *MemoryStorage

	mu               sync.Mutex
	pingErr          error
	storeResponseErr error
	getResponseErr   error
	getScoreErr      error
	setScoreErr      error

	// Call counters
	StoreResponseCalls int
	SetScoreCalls      int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a fault-free mock.
func NewMockStorage() *MockStorage {
	return &MockStorage{mem: NewMemoryStorage()}
}

func (m *MockStorage) SetPingError(err error)          { m.mu.Lock(); m.pingErr = err; m.mu.Unlock() }
func (m *MockStorage) SetStoreResponseError(err error) { m.mu.Lock(); m.storeResponseErr = err; m.mu.Unlock() }
func (m *MockStorage) SetGetResponseError(err error)   { m.mu.Lock(); m.getResponseErr = err; m.mu.Unlock() }
func (m *MockStorage) SetGetScoreError(err error)      { m.mu.Lock(); m.getScoreErr = err; m.mu.Unlock() }
func (m *MockStorage) SetSetScoreError(err error)      { m.mu.Lock(); m.setScoreErr = err; m.mu.Unlock() }

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) StoreResponse(ctx context.Context, submissionID string, rec game.ResponseRecord) error {
	m.mu.Lock()
	m.StoreResponseCalls++
	err := m.storeResponseErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.mem.StoreResponse(ctx, submissionID, rec)
}

func (m *MockStorage) GetResponse(ctx context.Context, submissionID string) (*game.ResponseRecord, error) {
	m.mu.Lock()
	err := m.getResponseErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.mem.GetResponse(ctx, submissionID)
}

func (m *MockStorage) GetScore(ctx context.Context, playerID string) (int, error) {
	m.mu.Lock()
	err := m.getScoreErr
	m.mu.Unlock()
	if err != nil {
		return game.DefaultScore, err
	}
	return m.mem.GetScore(ctx, playerID)
}

func (m *MockStorage) SetScore(ctx context.Context, playerID string, score int) error {
	m.mu.Lock()
	m.SetScoreCalls++
	err := m.setScoreErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.mem.SetScore(ctx, playerID, score)
}
