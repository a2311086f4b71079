package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apiscout/apiscout/internal/catalog"
	"github.com/apiscout/apiscout/internal/conversation"
	"github.com/apiscout/apiscout/internal/db"
	"github.com/apiscout/apiscout/internal/llm"
	"github.com/apiscout/apiscout/internal/llm/llmtest"
	"github.com/apiscout/apiscout/internal/router"
	"github.com/apiscout/apiscout/internal/settings"
)

const twilioID = "11111111-1111-1111-1111-111111111111"
const serviceNowID = "22222222-2222-2222-2222-222222222222"

var errProvider = errors.New("provider unavailable")

type fakeCatalog struct {
	specs []catalog.Spec
	err   error
}

func (f *fakeCatalog) Specs(ctx context.Context, tenant, environment string) ([]catalog.Spec, error) {
	return f.specs, f.err
}

func testSpecs() []catalog.Spec {
	return []catalog.Spec{
		{ID: twilioID, Context: "comms.messaging.twilio", Name: "sendSms",
			Description: "Send an SMS message through Twilio", Kind: catalog.KindAPIFunction,
			Function: &catalog.Signature{Arguments: []catalog.Property{
				{Name: "to", Type: catalog.PropertyType{Kind: catalog.PropPrimitive, Type: "string"}},
				{Name: "body", Type: catalog.PropertyType{Kind: catalog.PropPrimitive, Type: "string"}},
			}}},
		{ID: serviceNowID, Context: "serviceNow.incidents", Name: "create",
			Description: "Create a ServiceNow incident ticket", Kind: catalog.KindAPIFunction,
			Function: &catalog.Signature{}},
	}
}

type fixture struct {
	orch  *Orchestrator
	mock  *llmtest.MockProvider
	convs *conversation.Store
}

func setup(t *testing.T, script []llmtest.Step) *fixture {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	mock := llmtest.New("test")
	mock.Script = script
	convs := conversation.NewStore(database)

	orch := New(Config{
		Provider:      mock,
		Model:         "test-model",
		Catalog:       &fakeCatalog{specs: testSpecs()},
		Conversations: convs,
		Settings:      settings.New(settings.StaticSource{}),
		HistoryWindow: 3,
	})
	return &fixture{orch: orch, mock: mock, convs: convs}
}

func reply(content string) llmtest.Step {
	return llmtest.Step{Response: &llm.CompletionResponse{Content: content, FinishReason: "stop"}}
}

func TestFunctionRouteEndToEnd(t *testing.T) {
	f := setup(t, []llmtest.Step{
		reply(`{"keywords": "twilio sms send"}`),
		reply("```\n[{\"id\": \"1\", \"score\": 3}]\n```"),
		reply("Here is an example using lib.comms.messaging.twilio.sendSms."),
	})
	ctx := context.Background()

	result, err := f.orch.Answer(ctx, Request{
		UserID: "u1", WorkspaceID: "w1", Question: "how do I send an SMS with Twilio?",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if result.Route != router.RouteFunction {
		t.Errorf("route = %s, want function", result.Route)
	}
	if !strings.Contains(result.Answer, "example using lib.comms") {
		t.Errorf("answer = %q", result.Answer)
	}
	if f.mock.CallCount() != 3 {
		t.Fatalf("CallCount = %d, want 3 (keywords, choice, example)", f.mock.CallCount())
	}

	// The choice call shows only the above-threshold candidate, aliased.
	choiceReq := f.mock.Calls[1]
	joined := ""
	for _, m := range choiceReq.Messages {
		joined += m.Content + "\n"
	}
	if !strings.Contains(joined, "sendSms") {
		t.Errorf("choice prompt missing candidate:\n%s", joined)
	}
	if strings.Contains(joined, "serviceNow") {
		t.Errorf("below-threshold candidate leaked into choice prompt:\n%s", joined)
	}
	if strings.Contains(joined, twilioID) {
		t.Errorf("real id should be aliased in choice prompt:\n%s", joined)
	}

	// The example call carries the full signature of the chosen spec.
	exampleReq := f.mock.Calls[2]
	joined = ""
	for _, m := range exampleReq.Messages {
		joined += m.Content + "\n"
	}
	if !strings.Contains(joined, "lib.comms.messaging.twilio.sendSms(") {
		t.Errorf("example prompt missing signature:\n%s", joined)
	}
	if !strings.Contains(joined, "From the API library, how do I send an SMS with Twilio?") {
		t.Errorf("example prompt missing anchored question:\n%s", joined)
	}

	if result.Stats == nil || result.Stats.MatchCount == 0 {
		t.Errorf("stats = %+v, want at least one counted match", result.Stats)
	}

	// Step labels land in the conversation log.
	msgs, err := f.convs.Recent(ctx, result.ConversationID, nil, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	logText := ""
	for _, m := range msgs {
		logText += m.Content + "\n"
	}
	for _, step := range []string{
		"----- STEP 1: GET KEYWORDS -----",
		"----- STEP 2: GET BEST FUNCTIONS -----",
		"----- STEP 3: GET FUNCTION EXAMPLE -----",
	} {
		if !strings.Contains(logText, step) {
			t.Errorf("conversation log missing %q", step)
		}
	}
}

func TestFunctionRouteFallsBackWhenNoIDsSurvive(t *testing.T) {
	f := setup(t, []llmtest.Step{
		reply(`{"keywords": "twilio sms send"}`),
		reply("None of these functions fit the task, sorry."),
		reply("General knowledge answer."),
	})
	ctx := context.Background()

	result, err := f.orch.Answer(ctx, Request{
		UserID: "u1", WorkspaceID: "w1", Question: "how do I send an SMS with Twilio?",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Answer != "General knowledge answer." {
		t.Errorf("answer = %q", result.Answer)
	}

	// Fallback asks the raw question with no injected context.
	fallbackReq := f.mock.Calls[2]
	last := fallbackReq.Messages[len(fallbackReq.Messages)-1]
	if last.Content != "how do I send an SMS with Twilio?" {
		t.Errorf("fallback question = %q", last.Content)
	}

	msgs, _ := f.convs.Recent(ctx, result.ConversationID, nil, 0)
	logText := ""
	for _, m := range msgs {
		logText += m.Content + "\n"
	}
	if !strings.Contains(logText, "----- FALLBACK -----") {
		t.Error("conversation log missing FALLBACK label")
	}
}

func TestFunctionRouteFallsBackWhenNothingRanks(t *testing.T) {
	f := setup(t, []llmtest.Step{
		reply(`{"keywords": "quantum chromodynamics"}`),
		reply("Fallback answer."),
	})

	result, err := f.orch.Answer(context.Background(), Request{
		UserID: "u1", WorkspaceID: "w1", Question: "explain quantum chromodynamics",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Answer != "Fallback answer." {
		t.Errorf("answer = %q", result.Answer)
	}
	// Keywords call plus fallback call only; no choice step.
	if f.mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", f.mock.CallCount())
	}
}

func TestKeywordCallFailureFallsBack(t *testing.T) {
	f := setup(t, []llmtest.Step{
		{Err: errProvider},
		reply("Fallback answer."),
	})
	ctx := context.Background()

	result, err := f.orch.Answer(ctx, Request{
		UserID: "u1", WorkspaceID: "w1", Question: "how do I send an SMS with Twilio?",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Answer != "Fallback answer." {
		t.Errorf("answer = %q", result.Answer)
	}
	// A failed keywords call skips ranking and choice entirely; the raw
	// question goes to the model, not the full catalog.
	if f.mock.CallCount() != 2 {
		t.Fatalf("CallCount = %d, want 2 (failed keywords, fallback)", f.mock.CallCount())
	}
	fallbackReq := f.mock.Calls[1]
	last := fallbackReq.Messages[len(fallbackReq.Messages)-1]
	if last.Content != "how do I send an SMS with Twilio?" {
		t.Errorf("fallback question = %q", last.Content)
	}

	msgs, _ := f.convs.Recent(ctx, result.ConversationID, nil, 0)
	logText := ""
	for _, m := range msgs {
		logText += m.Content + "\n"
	}
	if !strings.Contains(logText, "----- FALLBACK -----") {
		t.Error("conversation log missing FALLBACK label")
	}
	if strings.Contains(logText, "STEP 2") {
		t.Error("choice step should not run after a keywords failure")
	}
}

func TestTokenLimitAppendsNoticeAndClears(t *testing.T) {
	f := setup(t, []llmtest.Step{
		reply(`{"keywords": "twilio sms send"}`),
		reply("```\n[{\"id\": \"1\", \"score\": 3}]\n```"),
		{Response: &llm.CompletionResponse{Content: "Truncated answ", FinishReason: llm.FinishReasonLength}},
	})
	ctx := context.Background()

	result, err := f.orch.Answer(ctx, Request{
		UserID: "u1", WorkspaceID: "w1", Question: "how do I send an SMS with Twilio?",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.HasPrefix(result.Answer, "Truncated answ") || !strings.Contains(result.Answer, "TOKEN LIMIT HIT") {
		t.Errorf("answer = %q", result.Answer)
	}

	n, err := f.convs.CountForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("CountForUser: %v", err)
	}
	if n != 0 {
		t.Errorf("conversation should be cleared after token limit, %d rows remain", n)
	}
}

func TestContextOverflowRetriesOnceWithoutHistory(t *testing.T) {
	f := setup(t, []llmtest.Step{
		reply(`{"keywords": "twilio sms send"}`),
		reply("```\n[{\"id\": \"1\", \"score\": 3}]\n```"),
		{Err: llm.ErrContextLength},
		reply("Answer after retry."),
	})
	ctx := context.Background()

	// Seed prior history so the example call carries it and the retry can
	// strip it.
	prior, err := f.convs.Create(ctx, "u1", "w1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.convs.Append(ctx, prior.ID, "u1", []llm.Message{
		{Role: llm.RoleUser, Content: "earlier question", Kind: llm.KindUser},
		{Role: llm.RoleAssistant, Content: "earlier answer", Kind: llm.KindModel},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	result, err := f.orch.Answer(ctx, Request{
		UserID: "u1", WorkspaceID: "w1", Question: "how do I send an SMS with Twilio?",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Answer != "Answer after retry." {
		t.Errorf("answer = %q", result.Answer)
	}

	if f.mock.CallCount() != 4 {
		t.Fatalf("CallCount = %d, want 4", f.mock.CallCount())
	}
	failed := f.mock.Calls[2]
	retried := f.mock.Calls[3]
	if len(retried.Messages) >= len(failed.Messages) {
		t.Errorf("retry should strip history: %d -> %d messages",
			len(failed.Messages), len(retried.Messages))
	}
	for _, m := range retried.Messages {
		if m.Content == "earlier question" {
			t.Error("history survived the overflow retry")
		}
	}
}

func TestHelpRouteWithoutQuestion(t *testing.T) {
	f := setup(t, nil)

	result, err := f.orch.Answer(context.Background(), Request{
		UserID: "u1", WorkspaceID: "w1", Question: "/h",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Route != router.RouteHelp {
		t.Errorf("route = %s", result.Route)
	}
	if !strings.Contains(result.Answer, "special commands") {
		t.Errorf("answer = %q", result.Answer)
	}
	if f.mock.CallCount() != 0 {
		t.Errorf("help listing should not call the model, got %d calls", f.mock.CallCount())
	}
}

func TestGeneralRouteAsksRawQuestion(t *testing.T) {
	f := setup(t, []llmtest.Step{reply("REST is an architectural style.")})

	result, err := f.orch.Answer(context.Background(), Request{
		UserID: "u1", WorkspaceID: "w1", Question: "/g what is REST?",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Route != router.RouteGeneral {
		t.Errorf("route = %s", result.Route)
	}
	if f.mock.CallCount() != 1 {
		t.Fatalf("CallCount = %d, want 1", f.mock.CallCount())
	}
	req := f.mock.Calls[0]
	last := req.Messages[len(req.Messages)-1]
	if last.Content != "what is REST?" {
		t.Errorf("general question = %q", last.Content)
	}
}

func TestStreamingEmitsDeltasAndNotice(t *testing.T) {
	f := setup(t, []llmtest.Step{
		reply(`{"keywords": "twilio sms send"}`),
		reply("```\n[{\"id\": \"1\", \"score\": 3}]\n```"),
		{Response: &llm.CompletionResponse{Content: "Partial", FinishReason: llm.FinishReasonLength}},
	})

	var streamed []string
	result, err := f.orch.AnswerStream(context.Background(), Request{
		UserID: "u1", WorkspaceID: "w1", Question: "how do I send an SMS with Twilio?",
	}, func(delta string) error {
		streamed = append(streamed, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("AnswerStream: %v", err)
	}

	total := strings.Join(streamed, "")
	if total != result.Answer {
		t.Errorf("streamed %q, answer %q", total, result.Answer)
	}
	if !strings.Contains(streamed[len(streamed)-1], "TOKEN LIMIT HIT") {
		t.Error("truncation notice should arrive as the final delta")
	}
}

func TestSystemPromptIsPrepended(t *testing.T) {
	f := setup(t, []llmtest.Step{reply("ok")})
	ctx := context.Background()

	if err := f.convs.SetSystemPrompt(ctx, "You are a function discovery assistant."); err != nil {
		t.Fatalf("SetSystemPrompt: %v", err)
	}

	if _, err := f.orch.Answer(ctx, Request{
		UserID: "u1", WorkspaceID: "w1", Question: "/g hello",
	}); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	req := f.mock.Calls[0]
	if req.Messages[0].Role != llm.RoleSystem ||
		req.Messages[0].Content != "You are a function discovery assistant." {
		t.Errorf("first message = %+v, want system prompt", req.Messages[0])
	}
}
