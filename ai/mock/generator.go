package mock

import (
	"context"
	"sync"

	"github.com/poiesic/flowmate/ai"
)

// Call records the arguments of one Generate invocation.
type Call struct {
	Prompt string
	Opts   ai.GenerateOptions
}

// MockGenerator is a test double for ai.Generator.
// By default it echoes a fixed Korean answer so conformance checks pass.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error)

	// Response is returned when GenerateFunc is nil.
	Response string

	mu    sync.Mutex
	calls []Call
}

// NewMockGenerator creates a generator that always answers with response.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

// Generate records the call and returns GenerateFunc's result or Response.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Prompt: prompt, Opts: opts})
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	return m.Response, nil
}

// CallCount returns how many times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent call. It panics if there were none.
func (m *MockGenerator) LastCall() Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// Reset clears recorded calls and the override hook.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.GenerateFunc = nil
}
