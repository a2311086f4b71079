// Package orchestrator drives the multi-step completion pipeline: route the
// question, extract keywords, rank the catalog, ask the model to choose, then
// ask it for a worked example, falling back to a plain answer when any step
// comes up empty.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/apiscout/apiscout/internal/answer"
	"github.com/apiscout/apiscout/internal/catalog"
	"github.com/apiscout/apiscout/internal/conversation"
	"github.com/apiscout/apiscout/internal/docs"
	"github.com/apiscout/apiscout/internal/keywords"
	"github.com/apiscout/apiscout/internal/llm"
	"github.com/apiscout/apiscout/internal/prompt"
	"github.com/apiscout/apiscout/internal/ranking"
	"github.com/apiscout/apiscout/internal/router"
	"github.com/apiscout/apiscout/internal/settings"
)

// Step labels written to the conversation log around each model round-trip.
const (
	stepKeywords = "STEP 1: GET KEYWORDS"
	stepChoice   = "STEP 2: GET BEST FUNCTIONS"
	stepExample  = "STEP 3: GET FUNCTION EXAMPLE"
	stepFallback = "FALLBACK"
)

const choiceTemperature = 0.01
const exampleTemperature = 0.7

// truncationNotice is appended to an answer the model cut off at the token
// limit. The conversation is reset so the next turn starts fresh.
const truncationNotice = "\n\nTOKEN LIMIT HIT\n\nThe assistant hit the model's token limit for this conversation. " +
	"Conversation reset. Please try again to see the full answer."

const helpAnswer = `Conversation special commands

* /function or /f or no slash command: search functions and variables and use them to answer the question
* /help or /h: list out available commands
* /docs or /d: search the documentation
* /general or /g: ask a general question straight to the model
`

// Request is one user turn.
type Request struct {
	UserID      string
	WorkspaceID string
	Tenant      string
	Environment string
	Question    string
}

// Result is the outcome of one turn.
type Result struct {
	Answer         string
	Route          router.Route
	ConversationID string
	Stats          *ranking.Stats
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	provider      llm.Provider
	model         string
	catalog       catalog.Fetcher
	conversations *conversation.Store
	extractor     *keywords.Extractor
	ranker        *ranking.Ranker
	docsIndex     *docs.Index
	historyWindow int
}

// Config collects the orchestrator's collaborators.
type Config struct {
	Provider      llm.Provider
	Model         string
	Catalog       catalog.Fetcher
	Conversations *conversation.Store
	Settings      *settings.Settings
	DocsIndex     *docs.Index
	HistoryWindow int
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		provider:      cfg.Provider,
		model:         cfg.Model,
		catalog:       cfg.Catalog,
		conversations: cfg.Conversations,
		extractor:     keywords.NewExtractor(cfg.Provider, cfg.Model, cfg.Settings),
		ranker:        ranking.NewRanker(cfg.Settings),
		docsIndex:     cfg.DocsIndex,
		historyWindow: cfg.HistoryWindow,
	}
}

// Answer runs one turn and returns the full answer.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (*Result, error) {
	return o.AnswerStream(ctx, req, nil)
}

// AnswerStream runs one turn. When onDelta is non-nil the final model call is
// streamed through it; earlier pipeline steps are always fully buffered.
func (o *Orchestrator) AnswerStream(ctx context.Context, req Request, onDelta func(delta string) error) (*Result, error) {
	route, question := router.Classify(req.Question)

	conv, err := o.conversations.Active(ctx, req.UserID, req.WorkspaceID)
	if err != nil {
		return nil, err
	}

	result := &Result{Route: route, ConversationID: conv.ID}
	switch route {
	case router.RouteHelp:
		err = o.answerHelp(ctx, conv, req, question, onDelta, result)
	case router.RouteGeneral:
		err = o.answerGeneral(ctx, conv, req, question, onDelta, result)
	case router.RouteDocumentation:
		err = o.answerDocumentation(ctx, conv, req, question, onDelta, result)
	default:
		err = o.answerFunction(ctx, conv, req, question, onDelta, result)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// answerFunction is the main pipeline: keywords, ranking, choice, example.
func (o *Orchestrator) answerFunction(ctx context.Context, conv *conversation.Conversation, req Request, question string, onDelta func(string) error, result *Result) error {
	specs, err := o.catalog.Specs(ctx, req.Tenant, req.Environment)
	if err != nil {
		return fmt.Errorf("fetching catalog: %w", err)
	}

	extracted, err := o.extractKeywords(ctx, conv, req, question)
	if err != nil {
		log.Printf("orchestrator: keyword extraction failed, falling back: %v", err)
		return o.fallback(ctx, conv, req, question, onDelta, result)
	}
	keywordStr, httpMethods := "", ""
	if extracted != nil {
		keywordStr = extracted.Keywords
		httpMethods = extracted.HTTPMethods
	}

	matches, stats := o.ranker.Rank(ctx, specs, keywordStr)
	matches = ranking.FilterByHTTPMethod(matches, httpMethods)
	result.Stats = &stats

	if len(matches) == 0 {
		return o.fallback(ctx, conv, req, question, onDelta, result)
	}

	ids, err := o.chooseBest(ctx, conv, req, question, matches)
	if err != nil {
		log.Printf("orchestrator: choice step failed, falling back: %v", err)
		return o.fallback(ctx, conv, req, question, onDelta, result)
	}
	ids = catalog.FilterToRealIDs(specs, ids)
	if len(ids) == 0 {
		return o.fallback(ctx, conv, req, question, onDelta, result)
	}

	return o.generateExample(ctx, conv, req, question, catalog.ByIDs(specs, ids), onDelta, result)
}

// extractKeywords runs STEP 1 and persists its round-trip. A failed model
// call is an error for the caller to fall back on; a nil result with no
// error is an unparseable reply and degrades to keyword-less ranking.
func (o *Orchestrator) extractKeywords(ctx context.Context, conv *conversation.Conversation, req Request, question string) (*keywords.Extracted, error) {
	extracted, roundTrip, err := o.extractor.Extract(ctx, question)
	if err != nil {
		return nil, err
	}
	o.persistStep(ctx, conv, req.UserID, stepKeywords, roundTrip)
	return extracted, nil
}

// chooseBest runs STEP 2: show the candidates and ask for ids with scores.
func (o *Orchestrator) chooseBest(ctx context.Context, conv *conversation.Conversation, req Request, question string, matches []catalog.Spec) ([]string, error) {
	aliases := prompt.NewAliasMap()
	options := prompt.BuildOptionsMessage(matches, aliases)
	if options == nil {
		return nil, nil
	}
	choice := prompt.BuildChoicePrompt(question)

	messages := []llm.Message{*options, choice}
	resp, err := o.complete(ctx, nil, messages, choiceTemperature, nil)
	if err != nil {
		return nil, err
	}

	roundTrip := append(messages, llm.Message{
		Role: llm.RoleAssistant, Content: resp.Content, Kind: llm.KindInternal,
	})
	o.persistStep(ctx, conv, req.UserID, stepChoice, roundTrip)

	ids := answer.ExtractIDs(resp.Content)
	return answer.Rehydrate(ids, aliases.Resolve), nil
}

// generateExample runs STEP 3 with the chosen specs and streams the answer.
func (o *Orchestrator) generateExample(ctx context.Context, conv *conversation.Conversation, req Request, question string, chosen []catalog.Spec, onDelta func(string) error, result *Result) error {
	current := prompt.BuildExampleMessages(chosen, question)
	current = o.withSystemPrompt(ctx, current)
	history := o.history(ctx, req.UserID)

	resp, err := o.complete(ctx, history, current, exampleTemperature, onDelta)
	if err != nil {
		return err
	}

	return o.finishTurn(ctx, conv, req, stepExample, current, resp, onDelta, result)
}

// fallback asks the raw question with no injected context, carrying prior
// conversation turns.
func (o *Orchestrator) fallback(ctx context.Context, conv *conversation.Conversation, req Request, question string, onDelta func(string) error, result *Result) error {
	current := o.withSystemPrompt(ctx, []llm.Message{prompt.QuestionMessage(question, false)})
	history := o.history(ctx, req.UserID)

	resp, err := o.complete(ctx, history, current, exampleTemperature, onDelta)
	if err != nil {
		return err
	}

	return o.finishTurn(ctx, conv, req, stepFallback, current, resp, onDelta, result)
}

func (o *Orchestrator) answerGeneral(ctx context.Context, conv *conversation.Conversation, req Request, question string, onDelta func(string) error, result *Result) error {
	return o.fallback(ctx, conv, req, question, onDelta, result)
}

// answerHelp returns the command listing, or answers the question with the
// listing as context.
func (o *Orchestrator) answerHelp(ctx context.Context, conv *conversation.Conversation, req Request, question string, onDelta func(string) error, result *Result) error {
	if question == "" {
		result.Answer = helpAnswer
		o.persistStep(ctx, conv, req.UserID, "", []llm.Message{
			{Role: llm.RoleUser, Content: req.Question, Kind: llm.KindUser},
			{Role: llm.RoleAssistant, Content: helpAnswer, Kind: llm.KindModel},
		})
		if onDelta != nil {
			return onDelta(helpAnswer)
		}
		return nil
	}

	current := []llm.Message{
		{Role: llm.RoleUser, Content: helpAnswer, Kind: llm.KindModel},
		prompt.QuestionMessage(question, false),
	}
	current = o.withSystemPrompt(ctx, current)

	resp, err := o.complete(ctx, o.history(ctx, req.UserID), current, exampleTemperature, onDelta)
	if err != nil {
		return err
	}
	return o.finishTurn(ctx, conv, req, "", current, resp, onDelta, result)
}

// answerDocumentation retrieves the most similar doc section and answers
// from it.
func (o *Orchestrator) answerDocumentation(ctx context.Context, conv *conversation.Conversation, req Request, question string, onDelta func(string) error, result *Result) error {
	var section *docs.Section
	if o.docsIndex != nil {
		var err error
		section, err = o.docsIndex.BestSection(ctx, question)
		if err != nil {
			log.Printf("orchestrator: docs search failed: %v", err)
		}
	}

	current := o.withSystemPrompt(ctx, []llm.Message{docs.BuildDocMessage(section, question)})
	resp, err := o.complete(ctx, o.history(ctx, req.UserID), current, exampleTemperature, onDelta)
	if err != nil {
		return err
	}
	return o.finishTurn(ctx, conv, req, "", current, resp, onDelta, result)
}

// finishTurn applies token-limit handling, persists the round-trip, and fills
// in the result.
func (o *Orchestrator) finishTurn(ctx context.Context, conv *conversation.Conversation, req Request, step string, sent []llm.Message, resp *llm.CompletionResponse, onDelta func(string) error, result *Result) error {
	answerText := resp.Content

	if resp.FinishReason == llm.FinishReasonLength {
		answerText += truncationNotice
		if onDelta != nil {
			if err := onDelta(truncationNotice); err != nil {
				return err
			}
		}
		if err := o.conversations.Clear(ctx, req.UserID); err != nil {
			log.Printf("orchestrator: clearing conversation after token limit: %v", err)
		}
		result.Answer = answerText
		return nil
	}

	o.persistStep(ctx, conv, req.UserID, step, append(sent, llm.Message{
		Role: llm.RoleAssistant, Content: answerText, Kind: llm.KindModel,
	}))
	result.Answer = answerText
	return nil
}

// complete sends history plus current messages. On context overflow it
// retries exactly once with the history stripped; a second failure
// propagates.
func (o *Orchestrator) complete(ctx context.Context, history, current []llm.Message, temperature float64, onDelta func(string) error) (*llm.CompletionResponse, error) {
	resp, err := o.call(ctx, append(append([]llm.Message{}, history...), current...), temperature, onDelta)
	if errors.Is(err, llm.ErrContextLength) && len(history) > 0 {
		log.Printf("orchestrator: context overflow, retrying without history")
		return o.call(ctx, current, temperature, onDelta)
	}
	return resp, err
}

func (o *Orchestrator) call(ctx context.Context, messages []llm.Message, temperature float64, onDelta func(string) error) (*llm.CompletionResponse, error) {
	req := llm.CompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: temperature,
	}
	if onDelta != nil {
		return o.provider.CompleteStream(ctx, req, onDelta)
	}
	return o.provider.Complete(ctx, req)
}

// persistStep writes an optional info row followed by the messages of a
// round-trip. Persistence failures are logged, never fatal for the turn.
func (o *Orchestrator) persistStep(ctx context.Context, conv *conversation.Conversation, userID, step string, messages []llm.Message) {
	rows := messages
	if step != "" {
		rows = append([]llm.Message{{
			Role:    llm.RoleInfo,
			Content: fmt.Sprintf("----- %s -----", step),
			Kind:    llm.KindInternal,
		}}, messages...)
	}
	if err := o.conversations.Append(ctx, conv.ID, userID, rows); err != nil {
		log.Printf("orchestrator: persisting %q round-trip: %v", step, err)
	}
}

// withSystemPrompt prepends the stored system prompt, when one exists.
func (o *Orchestrator) withSystemPrompt(ctx context.Context, messages []llm.Message) []llm.Message {
	sp, err := o.conversations.LatestSystemPrompt(ctx)
	if err != nil {
		log.Printf("orchestrator: reading system prompt: %v", err)
		return messages
	}
	if sp == nil || *sp == "" {
		return messages
	}
	return append([]llm.Message{{Role: llm.RoleSystem, Content: *sp, Kind: llm.KindModel}}, messages...)
}

// history returns the user-visible window of prior turns.
func (o *Orchestrator) history(ctx context.Context, userID string) []llm.Message {
	if o.historyWindow <= 0 {
		return nil
	}
	rows, err := o.conversations.RecentForUser(ctx, userID, o.historyWindow,
		[]llm.Kind{llm.KindModel, llm.KindUser}, 0)
	if err != nil {
		log.Printf("orchestrator: reading history: %v", err)
		return nil
	}

	out := make([]llm.Message, 0, len(rows))
	for _, row := range rows {
		if row.Role == llm.RoleInfo {
			continue
		}
		out = append(out, row.Message)
	}
	return out
}
