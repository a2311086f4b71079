package llm

import (
	"testing"
)

func TestStripInternal(t *testing.T) {
	messages := []Message{
		{Role: RoleInfo, Content: "----- STEP 1: GET KEYWORDS -----", Kind: KindInternal},
		{Role: RoleSystem, Content: "be helpful", Kind: KindModel},
		{Role: RoleUser, Content: "hello", Kind: KindUser},
	}

	stripped := stripInternal(messages)
	if len(stripped) != 2 {
		t.Fatalf("expected 2 messages after strip, got %d", len(stripped))
	}
	for _, m := range stripped {
		if m.Role == RoleInfo {
			t.Error("info row survived stripInternal")
		}
		if m.Kind != 0 {
			t.Errorf("kind %d leaked past stripInternal", m.Kind)
		}
	}
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider("openai", "some-model")
	if err == nil {
		t.Error("expected error for openai with missing API key")
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider("unknown", "some-model")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryCreatesOllamaWithDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	provider, err := NewProvider("ollama", "llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ollamaP, ok := provider.(*OllamaProvider)
	if !ok {
		t.Fatal("expected *OllamaProvider")
	}
	if ollamaP.baseURL != "http://localhost:11434" {
		t.Errorf("expected default host, got %q", ollamaP.baseURL)
	}
}

func TestFactoryCreatesOpenAIProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	provider, err := NewProvider("openai", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", provider.Name())
	}
}

func TestRoles(t *testing.T) {
	if RoleSystem != "system" {
		t.Errorf("RoleSystem = %q, want 'system'", RoleSystem)
	}
	if RoleUser != "user" {
		t.Errorf("RoleUser = %q, want 'user'", RoleUser)
	}
	if RoleAssistant != "assistant" {
		t.Errorf("RoleAssistant = %q, want 'assistant'", RoleAssistant)
	}
	if RoleInfo != "info" {
		t.Errorf("RoleInfo = %q, want 'info'", RoleInfo)
	}
}
