package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openaiBatchSize = 100

// OpenAIEmbedder generates embeddings through the OpenAI API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder for the given model, e.g.
// "text-embedding-3-small".
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: openai.NewClient(apiKey), model: model}
}

func (e *OpenAIEmbedder) Name() string {
	return e.model
}

func (e *OpenAIEmbedder) Dimensions() int {
	if e.model == "text-embedding-3-large" {
		return 3072
	}
	return 1536
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openaiBatchSize {
		end := start + openaiBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai embeddings: got %d vectors for %d texts", len(resp.Data), len(batch))
		}
		for _, item := range resp.Data {
			out = append(out, item.Embedding)
		}
	}
	return out, nil
}
