// Package embeddings generates text embeddings for documentation search.
package embeddings

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// Embedder turns texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// ToChromemFunc adapts an Embedder to chromem-go's one-text-at-a-time
// embedding function.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0], nil
	}
}

// NewEmbedder builds the embedder for the configured provider. OpenAI needs
// an API key; ollama models run against the local daemon.
func NewEmbedder(provider, model, apiKey string) (Embedder, error) {
	switch provider {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("embeddings: OPENAI_API_KEY is required for openai embeddings")
		}
		return NewOpenAIEmbedder(apiKey, model), nil
	case "ollama":
		return NewOllamaEmbedder(model, ""), nil
	default:
		return nil, fmt.Errorf("embeddings: unknown provider %q", provider)
	}
}
