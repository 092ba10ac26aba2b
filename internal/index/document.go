// Package index provides the in-memory keyword-tagged document collection
// that retrieval runs against, and the sources that load it.
package index

import (
	"encoding/json"
	"strconv"
)

// KeywordWeight is a single extracted keyword and its relevance weight.
type KeywordWeight struct {
	Term   string
	Weight float64
}

// Document is a wiki article tagged with weighted keywords at ingest time.
// Documents are immutable once loaded; URL is the unique key.
type Document struct {
	URL      string
	Title    string
	Text     string
	Keywords []KeywordWeight
}

// DecodeKeywords converts loosely-shaped keyword entries into well-typed
// pairs. Accepted shapes per entry: a two-element ["term", weight] array
// (weight numeric or numeric string) or a bare "term" string. A malformed
// weight defaults to 0.0; entries without a usable term are dropped. The
// decision is made once here so consumers never re-validate.
func DecodeKeywords(entries []json.RawMessage) []KeywordWeight {
	if len(entries) == 0 {
		return nil
	}

	keywords := make([]KeywordWeight, 0, len(entries))
	for _, entry := range entries {
		var pair []json.RawMessage
		if err := json.Unmarshal(entry, &pair); err == nil {
			if len(pair) == 0 {
				continue
			}
			var term string
			if err := json.Unmarshal(pair[0], &term); err != nil || term == "" {
				continue
			}
			keywords = append(keywords, KeywordWeight{
				Term:   term,
				Weight: decodeWeight(pair),
			})
			continue
		}

		// Some older records carry plain keyword strings with no weight.
		var term string
		if err := json.Unmarshal(entry, &term); err == nil && term != "" {
			keywords = append(keywords, KeywordWeight{Term: term})
		}
	}

	if len(keywords) == 0 {
		return nil
	}
	return keywords
}

func decodeWeight(pair []json.RawMessage) float64 {
	if len(pair) < 2 {
		return 0.0
	}

	var weight float64
	if err := json.Unmarshal(pair[1], &weight); err == nil {
		return weight
	}

	var s string
	if err := json.Unmarshal(pair[1], &s); err == nil {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return parsed
		}
	}

	return 0.0
}
