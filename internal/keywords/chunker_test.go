package keywords

import (
	"strings"
	"testing"

	"github.com/hopewell-bot/hopewell/internal/index"
)

func TestSplitWindows_ShortTextIsSingleWindow(t *testing.T) {
	windows := splitWindows("a short wiki page", 512, 50)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if windows[0] != "a short wiki page" {
		t.Errorf("unexpected window: %q", windows[0])
	}
}

func TestSplitWindows_Empty(t *testing.T) {
	if windows := splitWindows("   ", 512, 50); windows != nil {
		t.Errorf("expected nil for blank text, got %v", windows)
	}
}

func TestSplitWindows_OverlapAndCoverage(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = "w" + string(rune('a'+i))
	}
	text := strings.Join(words, " ")

	windows := splitWindows(text, 10, 3)
	if len(windows) < 3 {
		t.Fatalf("expected at least 3 windows, got %d", len(windows))
	}

	// Every word must land in some window.
	joined := " " + strings.Join(windows, " ") + " "
	for _, w := range words {
		if !strings.Contains(joined, " "+w+" ") {
			t.Errorf("word %q missing from windows", w)
		}
	}

	// Consecutive windows share the overlap tail.
	first := strings.Fields(windows[0])
	second := strings.Fields(windows[1])
	if first[len(first)-3] != second[0] {
		t.Errorf("expected 3-word overlap between windows, got tail %v head %v", first[len(first)-3:], second[:3])
	}
}

func TestMergeKeywords(t *testing.T) {
	merged := mergeKeywords(
		[]index.KeywordWeight{{Term: "camp", Weight: 0.4}, {Term: "goblin", Weight: 0.9}},
		[]index.KeywordWeight{{Term: "Camp", Weight: 0.7}, {Term: "grove", Weight: 0.5}},
	)

	if len(merged) != 3 {
		t.Fatalf("expected 3 merged terms, got %d: %v", len(merged), merged)
	}
	if merged[0].Term != "goblin" || merged[0].Weight != 0.9 {
		t.Errorf("expected goblin first, got %+v", merged[0])
	}
	if merged[1].Term != "camp" || merged[1].Weight != 0.7 {
		t.Errorf("expected camp to keep max weight 0.7, got %+v", merged[1])
	}
	if merged[2].Term != "grove" {
		t.Errorf("expected grove last, got %+v", merged[2])
	}
}

func TestMergeKeywords_DropsBlankTerms(t *testing.T) {
	merged := mergeKeywords([]index.KeywordWeight{{Term: "  ", Weight: 1}, {Term: "camp", Weight: 0.2}})
	if len(merged) != 1 || merged[0].Term != "camp" {
		t.Errorf("expected only camp to survive, got %v", merged)
	}
}
