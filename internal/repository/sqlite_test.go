package repository

import (
	"context"
	"testing"

	"github.com/tottenjordan/zghost/internal/domain"
)

func newTestStore(t *testing.T) *TranscriptStore {
	t.Helper()
	store, err := NewTranscriptStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTranscriptStoreSessionAndMessages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session := domain.Session{UserID: "u_999", SessionID: "s1", AppName: "trends_and_insights_agent"}
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	human := &domain.Message{ID: "m1", Kind: domain.MessageKindHuman, Content: "hello"}
	if err := store.SaveMessage(ctx, "s1", human); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	ai := &domain.Message{ID: "m2", Kind: domain.MessageKindAI, Content: "Processing your request...", Agent: "root_agent"}
	if err := store.SaveMessage(ctx, "s1", ai); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	// Finalizing a message replaces its stored content.
	ai.Content = "Here is what I found"
	ai.Artifacts = []domain.Artifact{{Key: "img_1.png", Kind: domain.ArtifactKindImage, URL: "http://localhost:8001/a"}}
	if err := store.SaveMessage(ctx, "s1", ai); err != nil {
		t.Fatalf("SaveMessage update failed: %v", err)
	}

	messages, err := store.GetMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != "m1" || messages[1].ID != "m2" {
		t.Fatalf("unexpected order: %s, %s", messages[0].ID, messages[1].ID)
	}
	if messages[1].Content != "Here is what I found" {
		t.Fatalf("unexpected content: %q", messages[1].Content)
	}
	if len(messages[1].Artifacts) != 1 || messages[1].Artifacts[0].Kind != domain.ArtifactKindImage {
		t.Fatalf("unexpected artifacts: %+v", messages[1].Artifacts)
	}
}

func TestTranscriptStoreTimeline(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session := domain.Session{UserID: "u_999", SessionID: "s1", AppName: "trends_and_insights_agent"}
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	msg := &domain.Message{ID: "m1", Kind: domain.MessageKindAI, Content: "working"}
	if err := store.SaveMessage(ctx, "s1", msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	events := []domain.TimelineEvent{
		{Title: "Function Call: search_web", Type: domain.TimelineFunctionCall, Name: "search_web"},
		{Title: "Conducting Web Research", Type: domain.TimelineAgentActivity, Agent: "web_researcher"},
	}
	for _, ev := range events {
		if err := store.SaveTimelineEvent(ctx, "m1", ev); err != nil {
			t.Fatalf("SaveTimelineEvent failed: %v", err)
		}
	}

	got, err := store.GetTimeline(ctx, "m1")
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != domain.TimelineFunctionCall || got[1].Agent != "web_researcher" {
		t.Fatalf("unexpected timeline: %+v", got)
	}
}

func TestTranscriptStoreListSessions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, id := range []string{"s1", "s2"} {
		session := domain.Session{UserID: "u_999", SessionID: id, AppName: "trends_and_insights_agent"}
		if err := store.SaveSession(ctx, session); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}
	}
	if err := store.SaveMessage(ctx, "s2", &domain.Message{ID: "m1", Kind: domain.MessageKindHuman, Content: "hi"}); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	summaries, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(summaries))
	}
	var s2 *domain.SessionSummary
	for i := range summaries {
		if summaries[i].ID == "s2" {
			s2 = &summaries[i]
		}
	}
	if s2 == nil || s2.EventCount != 1 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}
