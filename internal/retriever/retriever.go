// Package retriever turns a raw user query into a ranked list of candidate
// documents using keyword-weighted matching against the local index.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/hopewell-bot/hopewell/internal/index"
	"github.com/hopewell-bot/hopewell/internal/keywords"
)

// minTermLength drops single-character noise terms after filtering.
const minTermLength = 2

// Retriever scores indexed documents against a query's filtered keyword set.
type Retriever struct {
	extractor keywords.Extractor
	index     *index.Index
}

// New creates a retriever over the given extractor and index.
func New(extractor keywords.Extractor, ix *index.Index) *Retriever {
	return &Retriever{
		extractor: extractor,
		index:     ix,
	}
}

// scoredMatch ranks one matching document: title matches always outrank
// pure keyword matches, then by the maximum matching keyword weight.
type scoredMatch struct {
	titleMatch bool
	weight     float64
	doc        index.Document
}

// Search returns matching documents ordered most-relevant first. An empty
// or unavailable index, or a query whose filtered keyword set is empty,
// yields an empty result and a nil error. The only error path is the
// extraction collaborator failing outright.
func (r *Retriever) Search(ctx context.Context, query string) ([]index.Document, error) {
	if r.index.Len() == 0 {
		slog.Debug("search against empty index", "query", query)
		return nil, nil
	}

	extracted, err := r.extractor.Extract(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extracting query keywords: %w", err)
	}

	terms := FilterTerms(extracted)
	if len(terms) == 0 {
		slog.Debug("no usable query terms after filtering", "query", query)
		return nil, nil
	}

	// One word-boundary pattern per term; substring hits inside longer
	// words must not count as title matches.
	patterns := make([]*regexp.Regexp, 0, len(terms))
	termSet := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		termSet[term] = struct{}{}
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(term)+`\b`))
	}

	var matches []scoredMatch
	for _, doc := range r.index.Documents() {
		titleLower := strings.ToLower(doc.Title)

		titleMatch := false
		for _, pattern := range patterns {
			if pattern.MatchString(titleLower) {
				titleMatch = true
				break
			}
		}

		keywordMatch := false
		maxWeight := 0.0
		for _, kw := range doc.Keywords {
			if _, ok := termSet[strings.ToLower(kw.Term)]; ok {
				keywordMatch = true
				if kw.Weight > maxWeight {
					maxWeight = kw.Weight
				}
			}
		}

		if !titleMatch && !keywordMatch {
			continue
		}

		weight := 0.0
		if keywordMatch {
			weight = maxWeight
		}
		matches = append(matches, scoredMatch{
			titleMatch: titleMatch,
			weight:     weight,
			doc:        doc,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].titleMatch != matches[j].titleMatch {
			return matches[i].titleMatch
		}
		return matches[i].weight > matches[j].weight
	})

	docs := make([]index.Document, len(matches))
	for i, m := range matches {
		docs[i] = m.doc
	}

	slog.Debug("retrieval complete", "query", query, "terms", terms, "matches", len(docs))
	return docs, nil
}

// FilterTerms lowercases extracted terms and drops stop-words and terms
// shorter than the minimum length, preserving order. The same rules apply
// to indexed keywords at ingest and to live queries, so recall does not
// silently degrade from asymmetric normalization.
func FilterTerms(extracted []index.KeywordWeight) []string {
	var terms []string
	seen := make(map[string]struct{}, len(extracted))
	for _, kw := range extracted {
		term := strings.ToLower(strings.TrimSpace(kw.Term))
		if term == "" || len(term) < minTermLength {
			continue
		}
		if _, stop := stopWords[term]; stop {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}
