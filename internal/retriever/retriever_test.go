package retriever

import (
	"context"
	"testing"

	"github.com/hopewell-bot/hopewell/internal/index"
	"github.com/hopewell-bot/hopewell/internal/keywords"
)

// fakeExtractor returns a fixed keyword sequence regardless of input.
type fakeExtractor struct {
	keywords []index.KeywordWeight
	err      error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) ([]index.KeywordWeight, error) {
	return f.keywords, f.err
}

func kw(term string, weight float64) index.KeywordWeight {
	return index.KeywordWeight{Term: term, Weight: weight}
}

func testIndex() *index.Index {
	return index.New([]index.Document{
		{URL: "/a", Title: "Goblin Camp", Keywords: []index.KeywordWeight{kw("goblin", 0.9)}},
		{URL: "/b", Title: "Druid Grove", Keywords: []index.KeywordWeight{kw("druid", 0.8), kw("grove", 0.5)}},
	})
}

func TestFilterTerms(t *testing.T) {
	tests := []struct {
		name     string
		input    []index.KeywordWeight
		expected []string
	}{
		{
			name:     "stop-words dropped",
			input:    []index.KeywordWeight{kw("what", 1), kw("is", 1), kw("the", 1)},
			expected: nil,
		},
		{
			name:     "short terms dropped",
			input:    []index.KeywordWeight{kw("a", 1), kw("x", 1), kw("ox", 1)},
			expected: []string{"ox"},
		},
		{
			name:     "lowercased and deduplicated",
			input:    []index.KeywordWeight{kw("Goblin", 0.9), kw("goblin", 0.5), kw("Camp", 0.3)},
			expected: []string{"goblin", "camp"},
		},
		{
			name:     "order preserved",
			input:    []index.KeywordWeight{kw("druid", 1), kw("grove", 1)},
			expected: []string{"druid", "grove"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTerms(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("term %d: expected %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestSearch_TitleMatchRanksFirst(t *testing.T) {
	r := New(&fakeExtractor{keywords: []index.KeywordWeight{kw("goblin", 1), kw("camp", 1)}}, testIndex())

	docs, err := r.Search(context.Background(), "goblin camp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(docs))
	}
	if docs[0].URL != "/a" {
		t.Errorf("expected /a to match, got %s", docs[0].URL)
	}
}

func TestSearch_StopWordsOnlyQuery(t *testing.T) {
	r := New(&fakeExtractor{keywords: []index.KeywordWeight{kw("what", 1), kw("is", 1), kw("the", 1)}}, testIndex())

	docs, err := r.Search(context.Background(), "what is the")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no matches for stop-word-only query, got %d", len(docs))
	}
}

func TestSearch_EmptyExtraction(t *testing.T) {
	r := New(&fakeExtractor{}, testIndex())

	docs, err := r.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no matches for empty extraction, got %d", len(docs))
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	r := New(&fakeExtractor{keywords: []index.KeywordWeight{kw("goblin", 1)}}, index.New(nil))

	docs, err := r.Search(context.Background(), "goblin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no matches against empty index, got %d", len(docs))
	}
}

func TestSearch_WholeWordTitleMatch(t *testing.T) {
	ix := index.New([]index.Document{
		{URL: "/camp", Title: "Goblin Camp"},
		{URL: "/campaign", Title: "The Campaign"},
	})
	r := New(&fakeExtractor{keywords: []index.KeywordWeight{kw("camp", 1)}}, ix)

	docs, err := r.Search(context.Background(), "camp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected only the whole-word title match, got %d results", len(docs))
	}
	if docs[0].URL != "/camp" {
		t.Errorf("expected /camp, got %s", docs[0].URL)
	}
}

func TestSearch_TitleMatchOutranksKeywordWeight(t *testing.T) {
	// A pure keyword match with a high weight must still rank below any
	// title match.
	ix := index.New([]index.Document{
		{URL: "/kw", Title: "Unrelated", Keywords: []index.KeywordWeight{kw("ogre", 0.99)}},
		{URL: "/title", Title: "Ogre Lair", Keywords: nil},
	})
	r := New(&fakeExtractor{keywords: []index.KeywordWeight{kw("ogre", 1)}}, ix)

	docs, err := r.Search(context.Background(), "ogre")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(docs))
	}
	if docs[0].URL != "/title" {
		t.Errorf("expected title match first, got %s", docs[0].URL)
	}
}

func TestSearch_KeywordMatchesSortByMaxWeight(t *testing.T) {
	ix := index.New([]index.Document{
		{URL: "/low", Title: "First", Keywords: []index.KeywordWeight{kw("ogre", 0.2)}},
		{URL: "/high", Title: "Second", Keywords: []index.KeywordWeight{kw("ogre", 0.4), kw("ogre", 0.7)}},
	})
	r := New(&fakeExtractor{keywords: []index.KeywordWeight{kw("ogre", 1)}}, ix)

	docs, err := r.Search(context.Background(), "ogre")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(docs))
	}
	if docs[0].URL != "/high" {
		t.Errorf("expected higher max weight first, got %s", docs[0].URL)
	}
}

func TestSearch_CaseInsensitiveKeywordMatch(t *testing.T) {
	ix := index.New([]index.Document{
		{URL: "/a", Title: "Unrelated", Keywords: []index.KeywordWeight{kw("Goblin", 0.9)}},
	})
	r := New(&fakeExtractor{keywords: []index.KeywordWeight{kw("GOBLIN", 1)}}, ix)

	docs, err := r.Search(context.Background(), "GOBLIN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected case-insensitive keyword match, got %d results", len(docs))
	}
}

func TestSearch_NaiveExtractorEndToEnd(t *testing.T) {
	r := New(keywords.NewNaiveExtractor(), testIndex())

	docs, err := r.Search(context.Background(), "where is the Goblin Camp?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].URL != "/a" {
		t.Errorf("expected /a, got %v", docs)
	}
}
