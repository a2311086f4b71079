package prompt

import (
	"fmt"
	"strings"

	"github.com/apiscout/apiscout/internal/catalog"
	"github.com/apiscout/apiscout/internal/llm"
)

const (
	functionPreface = "Here are some functions in the API library,"
	handlerPreface  = "Here are some event handlers in the API library,"
	variablePreface = "Here are some variables in the API library,"
)

const choicePromptFormat = `Which of the functions above best accomplish this task?

"%s"

Please return valid JSON in this format:

` + "```" + `
[{"id": "<id>", "score": <1, 2, or 3>}]
` + "```" + `

Score 1 means the function is for the wrong domain entirely.
Score 2 means the function might help with the task.
Score 3 means the function can be used directly to accomplish the task.
Stop scanning the list as soon as you find a function that scores 3.`

const exampleInstruction = "Only suggest functions from the API library. " +
	"If you suggest using a function from the API library, give me an example of how to invoke the function " +
	"with `import lib from 'apiscout';` at the top. " +
	"Only include actual payload elements and function arguments in the example. Be concise."

// BuildOptionsMessage renders the surviving matches as an assistant-context
// message with separate function, event handler, and variable sections. When
// aliases is non-nil every entry's id is rewritten to a short alias. Returns
// nil when there is nothing to show.
func BuildOptionsMessage(matches []catalog.Spec, aliases *AliasMap) *llm.Message {
	var functions, handlers, variables []string
	for _, m := range matches {
		id := m.ID
		if aliases != nil {
			id = aliases.Alias(m.ID)
		}

		switch {
		case m.Kind == catalog.KindWebhookHandle:
			handlers = append(handlers, entryHeader(id, m)+m.Path())
		case m.Kind == catalog.KindServerVariable:
			variables = append(variables, entryHeader(id, m)+renderVariable(m))
		default:
			functions = append(functions, entryHeader(id, m)+RenderSignature(m))
		}
	}

	var parts []string
	if len(functions) > 0 {
		parts = append(parts, functionPreface)
		parts = append(parts, functions...)
	}
	if len(handlers) > 0 {
		parts = append(parts, handlerPreface)
		parts = append(parts, handlers...)
	}
	if len(variables) > 0 {
		parts = append(parts, variablePreface)
		parts = append(parts, variables...)
	}
	if len(parts) == 0 {
		return nil
	}

	return &llm.Message{
		Role:    llm.RoleAssistant,
		Content: strings.Join(parts, "\n\n"),
		Kind:    llm.KindModel,
	}
}

func entryHeader(id string, m catalog.Spec) string {
	return fmt.Sprintf("// id: %s\n// type: %s\n// description: %s\n", id, m.Kind, m.Description)
}

// renderVariable renders a server variable as its dotted access path with a
// capability note. Secret values can only be injected into function calls,
// never read back.
func renderVariable(m catalog.Spec) string {
	if m.Variable != nil && m.Variable.Secret {
		return m.Path() + "  (secret: can be injected into function calls, cannot be read)"
	}
	return m.Path() + "  (can be read or injected into function calls)"
}

// BuildChoicePrompt asks the model to pick the best functions from the
// options message, returning strict JSON ids with 1-3 scores.
func BuildChoicePrompt(question string) llm.Message {
	return llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf(choicePromptFormat, question),
		Kind:    llm.KindInternal,
	}
}

// BuildExampleMessages renders the example-generation prompt for the chosen
// specs: usage instructions, the full signatures, and the question.
func BuildExampleMessages(specs []catalog.Spec, question string) []llm.Message {
	var messages []llm.Message

	options := BuildOptionsMessage(specs, nil)
	if options != nil {
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: exampleInstruction,
			Kind:    llm.KindModel,
		})
		messages = append(messages, *options)
	}

	messages = append(messages, QuestionMessage(question, options != nil))
	return messages
}

// QuestionMessage wraps the user's question. When matches were injected the
// question is anchored to the library so the model prefers the provided
// functions over inventing its own.
func QuestionMessage(question string, hasMatches bool) llm.Message {
	content := question
	if hasMatches {
		content = "From the API library, " + question
	}
	return llm.Message{Role: llm.RoleUser, Content: content, Kind: llm.KindUser}
}
