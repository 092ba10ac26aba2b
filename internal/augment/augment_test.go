package augment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hopewell-bot/hopewell/internal/index"
	"github.com/hopewell-bot/hopewell/internal/llm"
	"github.com/hopewell-bot/hopewell/internal/session"
)

type fakeLLM struct {
	result llm.Result
	err    error
	prompt string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (llm.Result, error) {
	f.prompt = prompt
	return f.result, f.err
}

func (f *fakeLLM) NewChat(_ context.Context) (llm.Chat, error) {
	return nil, errors.New("not supported")
}

type fakeSearcher struct {
	results map[string][]index.Document
	calls   []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]index.Document, error) {
	f.calls = append(f.calls, query)
	return f.results[query], nil
}

func TestAugment_RetriesSearchOnceWithSuggestion(t *testing.T) {
	doc := index.Document{URL: "/a", Title: "Barbarian Subclasses"}
	searcher := &fakeSearcher{results: map[string][]index.Document{
		"barbarian subclass comparison": {doc},
	}}
	a := New(&fakeLLM{result: llm.Result{Text: "barbarian subclass comparison\n"}}, searcher, "test topic")

	docs, err := a.Augment(context.Background(), "which one should I pick?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].URL != "/a" {
		t.Errorf("expected augmented results, got %v", docs)
	}
	if len(searcher.calls) != 1 {
		t.Fatalf("expected exactly one retry search, got %d", len(searcher.calls))
	}
	if searcher.calls[0] != "barbarian subclass comparison" {
		t.Errorf("expected trimmed suggestion as query, got %q", searcher.calls[0])
	}
}

func TestAugment_BlockedGuidance(t *testing.T) {
	searcher := &fakeSearcher{}
	a := New(&fakeLLM{result: llm.Result{Blocked: true, BlockReason: "safety"}}, searcher, "test topic")

	docs, err := a.Augment(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("blocked guidance should not be an error, got: %v", err)
	}
	if docs != nil {
		t.Errorf("expected no results, got %v", docs)
	}
	if len(searcher.calls) != 0 {
		t.Error("searcher must not be called when guidance is blocked")
	}
}

func TestAugment_EmptySuggestion(t *testing.T) {
	searcher := &fakeSearcher{}
	a := New(&fakeLLM{result: llm.Result{Text: "   \n"}}, searcher, "test topic")

	docs, err := a.Augment(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs != nil || len(searcher.calls) != 0 {
		t.Error("empty suggestion must not trigger a retry")
	}
}

func TestAugment_GenerationError(t *testing.T) {
	searcher := &fakeSearcher{}
	a := New(&fakeLLM{err: errors.New("connection refused")}, searcher, "test topic")

	if _, err := a.Augment(context.Background(), "query", nil); err == nil {
		t.Fatal("expected error from failed guidance generation")
	}
	if len(searcher.calls) != 0 {
		t.Error("searcher must not be called when guidance fails")
	}
}

func TestAugment_PromptIncludesQueryHistoryAndTopic(t *testing.T) {
	fake := &fakeLLM{result: llm.Result{Text: ""}}
	a := New(fake, &fakeSearcher{}, "wiki lore")

	history := []session.Turn{
		{Role: session.RoleUser, Text: "tell me about barbarians"},
		{Role: session.RoleAssistant, Text: "Barbarians are a martial class."},
	}
	if _, err := a.Augment(context.Background(), "which one should I pick?", history); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		`"which one should I pick?"`,
		"wiki lore",
		"- User: tell me about barbarians",
		"- Assistant: Barbarians are a martial class.",
	} {
		if !strings.Contains(fake.prompt, want) {
			t.Errorf("guidance prompt missing %q:\n%s", want, fake.prompt)
		}
	}
}

func TestAugment_PromptStatesMissingHistory(t *testing.T) {
	fake := &fakeLLM{result: llm.Result{Text: ""}}
	a := New(fake, &fakeSearcher{}, "wiki lore")

	if _, err := a.Augment(context.Background(), "query", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(fake.prompt, "No prior conversation history.") {
		t.Errorf("guidance prompt must state missing history:\n%s", fake.prompt)
	}
}
