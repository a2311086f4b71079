package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"

	// RoleInfo marks internal bookkeeping rows (step labels, diagnostics).
	// Messages with this role are never sent to a provider.
	RoleInfo Role = "info"
)

// Kind classifies a message for persistence and history filtering.
type Kind int

const (
	KindModel    Kind = 1 // messages exchanged with the model, hidden from the user
	KindUser     Kind = 2 // what the user sees
	KindInternal Kind = 3 // internal log rows for our own auditing
	KindPlugin   Kind = 4 // plugin API messages
)

// Message represents a single message in a conversation. Kind and Name are
// internal-use fields; providers strip them before the wire.
type Message struct {
	Role    Role
	Content string
	Name    string
	Kind    Kind
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// FinishReasonLength indicates the model stopped because it ran out of tokens.
const FinishReasonLength = "length"

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// stripInternal removes info rows and internal-only fields before a request
// goes over the wire.
func stripInternal(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleInfo {
			continue
		}
		out = append(out, Message{Role: m.Role, Content: m.Content, Name: m.Name})
	}
	return out
}
