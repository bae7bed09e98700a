package llm

import (
	"context"
	"sync"
)

// MockGenerator is a mock implementation of Generator for testing
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, systemPrompt, userMessage string) (string, error)

	// Track calls for testing
	GenerateCalls []GenerateCall

	mu sync.Mutex // protects all fields above
}

type GenerateCall struct {
	SystemPrompt string
	UserMessage  string
}

// Ensure MockGenerator implements Generator interface
var _ Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a new mock generator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		GenerateCalls: make([]GenerateCall, 0),
	}
}

func (m *MockGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{
		SystemPrompt: systemPrompt,
		UserMessage:  userMessage,
	})

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, userMessage)
	}

	// Default behavior - a well-formed persona reply
	return "Look, that's a TREMENDOUS effort (I know effort, believe me), but not enough! SAD!", nil
}

// SetGenerateError sets up the mock to return an error on Generate
func (m *MockGenerator) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, systemPrompt, userMessage string) (string, error) {
		return "", err
	}
}

// SetGenerateReply sets up the mock to return a fixed reply
func (m *MockGenerator) SetGenerateReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, systemPrompt, userMessage string) (string, error) {
		return reply, nil
	}
}

// CallCount returns the number of Generate calls in a thread-safe way
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls)
}
