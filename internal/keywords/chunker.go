package keywords

import (
	"sort"
	"strings"

	"github.com/hopewell-bot/hopewell/internal/index"
)

// Word-window defaults for splitting long documents before extraction.
// The extraction model degrades on very long inputs, so oversized texts
// are windowed with overlap and the per-window terms merged afterwards.
const (
	defaultWindowWords  = 512
	defaultOverlapWords = 50
)

// splitWindows splits text into overlapping word windows. Texts at or under
// the window size come back as a single element.
func splitWindows(text string, windowWords, overlapWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if windowWords <= 0 {
		windowWords = defaultWindowWords
	}
	if overlapWords < 0 || overlapWords >= windowWords {
		overlapWords = defaultOverlapWords
	}
	if len(words) <= windowWords {
		return []string{strings.Join(words, " ")}
	}

	step := windowWords - overlapWords
	if step <= 0 {
		step = windowWords
	}

	var windows []string
	for i := 0; i < len(words); i += step {
		end := i + windowWords
		if end > len(words) {
			end = len(words)
		}
		windows = append(windows, strings.Join(words[i:end], " "))
		if end >= len(words) {
			break
		}
	}
	return windows
}

// mergeKeywords combines per-window extractions. A term appearing in several
// windows keeps its highest weight. The result is ordered by weight, heaviest
// first, with first-seen order breaking ties.
func mergeKeywords(extractions ...[]index.KeywordWeight) []index.KeywordWeight {
	best := make(map[string]float64)
	firstSeen := make(map[string]int)
	var order []string

	for _, extraction := range extractions {
		for _, kw := range extraction {
			term := strings.ToLower(strings.TrimSpace(kw.Term))
			if term == "" {
				continue
			}
			if _, ok := best[term]; !ok {
				firstSeen[term] = len(order)
				order = append(order, term)
				best[term] = kw.Weight
			} else if kw.Weight > best[term] {
				best[term] = kw.Weight
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if best[order[i]] != best[order[j]] {
			return best[order[i]] > best[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	merged := make([]index.KeywordWeight, 0, len(order))
	for _, term := range order {
		merged = append(merged, index.KeywordWeight{Term: term, Weight: best[term]})
	}
	return merged
}
