// Package keywords turns a free-text question into a compact keyword string
// by delegating to the model and parsing its structured reply.
package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/apiscout/apiscout/internal/llm"
	"github.com/apiscout/apiscout/internal/settings"
)

const extractPrompt = `For the following prompt, give me back the keywords from my prompt.
This will be used to power an API discovery service.
Each keyword must be a single word.
Return 8 or fewer keywords.
Return only the keywords most relevant to APIs or variables.
Don't include "API" or "resource" as keywords.

Here is the prompt:

"%s"

Return the keywords as a space separated list. Please return valid JSON in this format:

` + "```" + `
{"keywords": "foo bar"}
` + "```" + `
`

const transformPrompt = "Translate the keywords to English.  Please correct typos."

// Extracted is the parsed result of one keyword extraction round-trip.
type Extracted struct {
	Keywords    string
	HTTPMethods string
}

// Extractor asks the model for the keyword set of a question.
type Extractor struct {
	provider llm.Provider
	model    string
	settings *settings.Settings
}

// NewExtractor creates an Extractor using the given provider and model.
func NewExtractor(provider llm.Provider, model string, s *settings.Settings) *Extractor {
	return &Extractor{provider: provider, model: model, settings: s}
}

// Extract sends the question through the extraction template and parses the
// reply. It returns the messages of the round-trip so the caller can persist
// them, and a nil Extracted when the reply was not parseable; a call failure
// is returned as an error.
func (e *Extractor) Extract(ctx context.Context, question string) (*Extracted, []llm.Message, error) {
	messages := []llm.Message{
		{Role: llm.RoleUser, Content: fmt.Sprintf(extractPrompt, question), Kind: llm.KindInternal},
		{Role: llm.RoleUser, Content: transformPrompt, Kind: llm.KindInternal},
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    messages,
		Temperature: e.settings.ExtractKeywordsTemperature(ctx),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("extracting keywords: %w", err)
	}

	content := strings.ReplaceAll(resp.Content, "```", "")
	messages = append(messages, llm.Message{
		Role: llm.RoleAssistant, Content: content, Kind: llm.KindInternal,
	})

	extracted := parseReply(content)
	return extracted, messages, nil
}

// parseReply decodes the model's JSON. Lists are coerced to space-joined
// strings because the model is not fully format-compliant.
func parseReply(content string) *Extracted {
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		log.Printf("keywords: non-JSON reply from model: %v\n%s", err, content)
		return nil
	}

	return &Extracted{
		Keywords:    coerceString(raw["keywords"]),
		HTTPMethods: coerceString(raw["httpMethods"]),
	}
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return removePunctuation(strings.Join(parts, " "))
	default:
		return ""
	}
}

func removePunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, s)
}
