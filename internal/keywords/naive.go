package keywords

import (
	"context"
	"strings"

	"github.com/hopewell-bot/hopewell/internal/index"
)

// NaiveExtractor splits text into lowercase word tokens with a uniform
// weight. It stands in for the model service in offline runs and tests;
// downstream stop-word filtering still applies.
type NaiveExtractor struct{}

// NewNaiveExtractor creates a tokenizing extractor.
func NewNaiveExtractor() *NaiveExtractor {
	return &NaiveExtractor{}
}

// Extract tokenizes on whitespace, trims punctuation, lowercases, and
// deduplicates while preserving first-seen order.
func (e *NaiveExtractor) Extract(_ context.Context, text string) ([]index.KeywordWeight, error) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(fields))
	keywords := make([]index.KeywordWeight, 0, len(fields))
	for _, field := range fields {
		term := strings.Trim(field, ".,!?;:\"'()[]{}=<>")
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		keywords = append(keywords, index.KeywordWeight{Term: term, Weight: 1.0})
	}

	if len(keywords) == 0 {
		return nil, nil
	}
	return keywords, nil
}

// Ensure NaiveExtractor implements Extractor interface.
var _ Extractor = (*NaiveExtractor)(nil)
