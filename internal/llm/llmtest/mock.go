// Package llmtest provides a scriptable Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/apiscout/apiscout/internal/llm"
)

// Step is one scripted round-trip outcome.
type Step struct {
	Response *llm.CompletionResponse
	Err      error
}

// MockProvider records every request and replays canned responses. When
// Script is set, steps are consumed in order; otherwise Response/Err are
// returned for every call.
type MockProvider struct {
	mu       sync.Mutex
	ProvName string
	Response *llm.CompletionResponse
	Err      error
	Script   []Step
	Calls    []llm.CompletionRequest
}

// New returns a MockProvider with a generic canned response.
func New(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &llm.CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	if m.ProvName == "" {
		return "mock"
	}
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	if len(m.Script) > 0 {
		step := m.Script[0]
		m.Script = m.Script[1:]
		return step.Response, step.Err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CompleteStream(ctx context.Context, req llm.CompletionRequest, onDelta func(delta string) error) (*llm.CompletionResponse, error) {
	resp, err := m.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if onDelta != nil {
		if err := onDelta(resp.Content); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// CallCount returns how many completion calls have been made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastRequest returns the most recent request, or nil if none were made.
func (m *MockProvider) LastRequest() *llm.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	req := m.Calls[len(m.Calls)-1]
	return &req
}
