package llm

import (
	"context"
	"errors"
)

// ErrContextLength indicates the prompt plus history exceeded the model's
// context window. Callers may retry with a trimmed prompt.
var ErrContextLength = errors.New("llm: context length exceeded")

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// CompleteStream sends a completion request and invokes onDelta for each
	// text fragment as it arrives. It returns the fully assembled response.
	CompleteStream(ctx context.Context, req CompletionRequest, onDelta func(delta string) error) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
