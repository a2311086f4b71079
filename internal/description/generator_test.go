package description

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apiscout/apiscout/internal/llm"
	"github.com/apiscout/apiscout/internal/llm/llmtest"
)

func reply(content string) []llmtest.Step {
	return []llmtest.Step{
		{Response: &llm.CompletionResponse{Content: content, FinishReason: "stop"}},
	}
}

func TestFunctionDescription(t *testing.T) {
	mock := llmtest.New("test")
	mock.Script = reply("```json\n{\"context\": \"shopify.products\", \"name\": \"create\", \"description\": \"Create a new product on Shopify.\"}\n```")
	g := NewGenerator(mock, "test-model")

	out, err := g.FunctionDescription(context.Background(), Input{
		URL:              "https://example.com/products",
		Method:           "POST",
		ShortDescription: "Create a thing",
	})
	if err != nil {
		t.Fatalf("FunctionDescription: %v", err)
	}
	if out.Context != "shopify.products" || out.Name != "create" {
		t.Errorf("parsed = %+v", out)
	}
	if !strings.Contains(out.Description, "Create a new product") {
		t.Errorf("description = %q", out.Description)
	}

	req := mock.LastRequest()
	if req.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", req.Temperature)
	}
	prompt := req.Messages[0].Content
	for _, want := range []string{"API call", "User given name: Create a thing", "POST https://example.com/products", "Request Payload:\nNone"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestWebhookDescriptionCallType(t *testing.T) {
	mock := llmtest.New("test")
	mock.Script = reply(`{"context": "comms", "name": "onSmsReceived", "description": "Fires when an SMS arrives."}`)
	g := NewGenerator(mock, "test-model")

	if _, err := g.WebhookDescription(context.Background(), Input{URL: "https://example.com/hook"}); err != nil {
		t.Fatalf("WebhookDescription: %v", err)
	}

	prompt := mock.LastRequest().Messages[0].Content
	if !strings.Contains(prompt, "Event handler") {
		t.Errorf("prompt missing call type:\n%s", prompt)
	}
	if strings.Contains(prompt, "API call") {
		t.Errorf("webhook prompt should not mention API call:\n%s", prompt)
	}
}

func TestParseReplyStripsSpacesAndDashes(t *testing.T) {
	out, err := parseReply(`JSON Response: {"context": "shopify. products", "name": "create-product", "description": "d"}`)
	if err != nil {
		t.Fatalf("parseReply: %v", err)
	}
	if out.Context != "shopify.products" {
		t.Errorf("context = %q", out.Context)
	}
	if out.Name != "createproduct" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestGenerateNonJSONReturnsParseError(t *testing.T) {
	mock := llmtest.New("test")
	mock.Script = reply("Name: foobar")
	g := NewGenerator(mock, "test-model")

	_, err := g.FunctionDescription(context.Background(), Input{URL: "https://example.com"})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if pe.Reply != "Name: foobar" {
		t.Errorf("ParseError.Reply = %q", pe.Reply)
	}
}

func TestGeneratePropagatesCallFailure(t *testing.T) {
	mock := llmtest.New("test")
	mock.Script = []llmtest.Step{{Err: errors.New("provider down")}}
	g := NewGenerator(mock, "test-model")

	if _, err := g.FunctionDescription(context.Background(), Input{}); err == nil {
		t.Fatal("expected an error from a failed call")
	}
}
