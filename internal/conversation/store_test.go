package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/apiscout/apiscout/internal/db"
	"github.com/apiscout/apiscout/internal/llm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestActiveCreatesLazily(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	c1, err := s.Active(ctx, "u1", "w1")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if c1.ID == "" {
		t.Fatal("expected a conversation id")
	}

	c2, err := s.Active(ctx, "u1", "w1")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if c2.ID != c1.ID {
		t.Errorf("second Active returned a new conversation: %s != %s", c2.ID, c1.ID)
	}

	other, err := s.Active(ctx, "u1", "w2")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if other.ID == c1.ID {
		t.Error("workspaces should not share conversations")
	}
}

func TestAppendAndRecentOrdering(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	c, err := s.Create(ctx, "u1", "w1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "first", Kind: llm.KindUser},
		{Role: llm.RoleAssistant, Content: "second", Kind: llm.KindModel},
		{Role: llm.RoleInfo, Content: "----- STEP 1 -----", Kind: llm.KindInternal},
		{Role: llm.RoleUser, Content: "third", Kind: llm.KindUser},
	}
	if err := s.Append(ctx, c.ID, "u1", msgs); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.Recent(ctx, c.ID, nil, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d messages, want 4", len(got))
	}
	for i, want := range []string{"first", "second", "----- STEP 1 -----", "third"} {
		if got[i].Content != want {
			t.Errorf("message %d = %q, want %q", i, got[i].Content, want)
		}
	}
}

func TestRecentKindFilterAndLimit(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	c, err := s.Create(ctx, "u1", "w1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var msgs []llm.Message
	for i := 0; i < 6; i++ {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("q%d", i), Kind: llm.KindUser},
			llm.Message{Role: llm.RoleInfo, Content: fmt.Sprintf("log%d", i), Kind: llm.KindInternal},
		)
	}
	if err := s.Append(ctx, c.ID, "u1", msgs); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.Recent(ctx, c.ID, []llm.Kind{llm.KindUser}, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	// Limit keeps the newest rows, returned oldest first.
	for i, want := range []string{"q3", "q4", "q5"} {
		if got[i].Content != want {
			t.Errorf("message %d = %q, want %q", i, got[i].Content, want)
		}
	}
}

func TestRecentForUserSpansConversations(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	c1, _ := s.Create(ctx, "u1", "w1")
	if err := s.Append(ctx, c1.ID, "u1", []llm.Message{
		{Role: llm.RoleUser, Content: "old question", Kind: llm.KindUser},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	c2, _ := s.Create(ctx, "u1", "w1")
	if err := s.Append(ctx, c2.ID, "u1", []llm.Message{
		{Role: llm.RoleUser, Content: "new question", Kind: llm.KindUser},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.RecentForUser(ctx, "u1", 2, []llm.Kind{llm.KindUser}, 0)
	if err != nil {
		t.Fatalf("RecentForUser: %v", err)
	}
	if len(got) != 2 || got[0].Content != "old question" || got[1].Content != "new question" {
		t.Errorf("unexpected window: %+v", got)
	}

	// Lookback of 1 only sees the newest conversation.
	got, err = s.RecentForUser(ctx, "u1", 1, nil, 0)
	if err != nil {
		t.Fatalf("RecentForUser: %v", err)
	}
	if len(got) != 1 || got[0].Content != "new question" {
		t.Errorf("lookback 1 should only see the latest conversation, got %+v", got)
	}
}

func TestClear(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	c, _ := s.Create(ctx, "u1", "w1")
	s.Append(ctx, c.ID, "u1", []llm.Message{{Role: llm.RoleUser, Content: "hi", Kind: llm.KindUser}})

	other, _ := s.Create(ctx, "u2", "w1")
	s.Append(ctx, other.ID, "u2", []llm.Message{{Role: llm.RoleUser, Content: "hello", Kind: llm.KindUser}})

	if err := s.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	n, err := s.CountForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("CountForUser: %v", err)
	}
	if n != 0 {
		t.Errorf("u1 still has %d messages after clear", n)
	}

	n, _ = s.CountForUser(ctx, "u2")
	if n != 1 {
		t.Errorf("clear should not touch other users, u2 has %d messages", n)
	}
}

func TestSystemPrompt(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	got, err := s.LatestSystemPrompt(ctx)
	if err != nil {
		t.Fatalf("LatestSystemPrompt: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil before any prompt is stored, got %q", *got)
	}

	if err := s.SetSystemPrompt(ctx, "You are a helpful assistant."); err != nil {
		t.Fatalf("SetSystemPrompt: %v", err)
	}
	if err := s.SetSystemPrompt(ctx, "You answer about functions."); err != nil {
		t.Fatalf("SetSystemPrompt: %v", err)
	}

	got, err = s.LatestSystemPrompt(ctx)
	if err != nil {
		t.Fatalf("LatestSystemPrompt: %v", err)
	}
	if got == nil || *got != "You answer about functions." {
		t.Errorf("latest prompt should win, got %v", got)
	}
}
