// Package description generates a context, name and description for a new
// API call or event handler, so entries enter the catalog with searchable
// metadata.
package description

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/apiscout/apiscout/internal/llm"
)

const descriptionTemperature = 0.2

const descriptionPrompt = `
I will provide you information about an %[1]s.

Please give me a context, name and description for the %[1]s.

The context is a way of grouping similar %[1]ss.

The context and name can use '.' notation but cannot have any spaces or dashes.

The context and name should be in camelCase.

Don't repeat words in both the context and the name.

Don't repeat similar words in both the name and the context

The context should begin with the product. Then the resource. Then the action.

For example, to create a new product on shopify the context should be "shopify.products" and the name should be "create".

Resources should be plural. For example, shopify.products, shopify.orders, shopify.customers, etc.

The description should use keywords that makes search efficient. It can be a little redundant if that adds keywords but needs to remain human readable. It should be three to five sentences long.

Here is the %[1]s:

%[2]s
%[3]s %[4]s

Request Payload:
%[5]s

Response Payload:
%[6]s

Please return JSON with three keys: context, name, description
`

// Input describes the call being named.
type Input struct {
	URL              string `json:"url"`
	Method           string `json:"method"`
	ShortDescription string `json:"short_description"`
	Payload          string `json:"payload"`
	Response         string `json:"response"`
}

// Output is the generated catalog metadata. Raw carries the model's reply
// for logging.
type Output struct {
	Context     string `json:"context"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Raw         string `json:"openai_response,omitempty"`
}

// ParseError reports a model reply that was not valid JSON. The reply is
// kept so the caller can surface it.
type ParseError struct {
	Reply string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("description: parsing model reply: %v: %s", e.Err, e.Reply)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Generator names API calls and event handlers via the model.
type Generator struct {
	provider llm.Provider
	model    string
}

// NewGenerator creates a Generator using the given provider and model.
func NewGenerator(provider llm.Provider, model string) *Generator {
	return &Generator{provider: provider, model: model}
}

// FunctionDescription names an API call.
func (g *Generator) FunctionDescription(ctx context.Context, in Input) (*Output, error) {
	return g.generate(ctx, in, "API call")
}

// WebhookDescription names an event handler.
func (g *Generator) WebhookDescription(ctx context.Context, in Input) (*Output, error) {
	return g.generate(ctx, in, "Event handler")
}

func (g *Generator) generate(ctx context.Context, in Input, callType string) (*Output, error) {
	short := in.ShortDescription
	if short != "" {
		short = "User given name: " + short
	}
	payload, response := in.Payload, in.Response
	if payload == "" {
		payload = "None"
	}
	if response == "" {
		response = "None"
	}

	prompt := fmt.Sprintf(descriptionPrompt, callType, short, in.Method, in.URL, payload, response)

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt, Kind: llm.KindInternal},
		},
		Temperature: descriptionTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("description: completion: %w", err)
	}

	out, err := parseReply(resp.Content)
	if err != nil {
		return nil, err
	}
	if out.Context == "" || out.Name == "" || out.Description == "" {
		log.Printf("description: incomplete reply for %s %s: %s", in.Method, in.URL, out.Raw)
	}
	return out, nil
}

// parseReply decodes the model's JSON, tolerating code fences and a leading
// "JSON Response:" label, and strips spaces and dashes from the dotted parts.
func parseReply(content string) (*Output, error) {
	cleaned := strings.ReplaceAll(content, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "JSON Response:")
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "json"))

	var out Output
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &ParseError{Reply: content, Err: err}
	}
	out.Raw = cleaned

	clean := strings.NewReplacer(" ", "", "-", "")
	out.Context = clean.Replace(out.Context)
	out.Name = clean.Replace(out.Name)
	return &out, nil
}
