package llm

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	client := openai.NewClient(apiKey)
	return &OpenAIProvider{
		client: client,
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}

	var messages []openai.ChatCompletionMessage
	for _, msg := range stripInternal(req.Messages) {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
			Name:    msg.Name,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}

	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return apiReq
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req))
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	var content, finishReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:      content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		FinishReason: finishReason,
	}, nil
}

func (p *OpenAIProvider) CompleteStream(ctx context.Context, req CompletionRequest, onDelta func(delta string) error) (*CompletionResponse, error) {
	apiReq := p.buildRequest(req)
	apiReq.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	defer stream.Close()

	var content []byte
	var finishReason string
	var model string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, mapOpenAIError(err)
		}
		model = chunk.Model
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finishReason = string(choice.FinishReason)
		}
		if choice.Delta.Content == "" {
			continue
		}
		content = append(content, choice.Delta.Content...)
		if onDelta != nil {
			if err := onDelta(choice.Delta.Content); err != nil {
				return nil, err
			}
		}
	}

	return &CompletionResponse{
		Content:      string(content),
		Model:        model,
		FinishReason: finishReason,
	}, nil
}

// mapOpenAIError converts provider errors into our sentinel errors where the
// caller has a recovery path.
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
			return ErrContextLength
		}
	}
	return err
}
