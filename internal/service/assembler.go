package service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hopewell-bot/hopewell/internal/index"
)

// maxContextDocuments caps how many resolved references feed the answer.
const maxContextDocuments = 3

// Context sentinels. Callers treat these as "proceed without grounding",
// never as errors.
const (
	// NoRerankedContext is returned when the reranker selected nothing.
	NoRerankedContext = "No specific documents were identified as relevant by the re-ranking step for the current query."

	// NoRetrievableContext is returned when no reference resolved back to a
	// candidate document.
	NoRetrievableContext = "No content could be retrieved for the top re-ranked pages."
)

// AssembleContext resolves reranked reference URLs back to full document
// text and concatenates labeled context blocks, capped at
// maxContextDocuments. Unresolvable references are skipped; the first
// candidate wins when duplicates share a URL.
func AssembleContext(referenceURLs []string, candidates []index.Document) string {
	if len(referenceURLs) == 0 {
		return NoRerankedContext
	}

	if len(referenceURLs) > maxContextDocuments {
		referenceURLs = referenceURLs[:maxContextDocuments]
	}

	var sb strings.Builder
	resolved := 0

	for _, target := range referenceURLs {
		doc, ok := findByURL(candidates, target)
		if !ok {
			slog.Debug("no local document for reranked url", "url", target)
			continue
		}

		resolved++
		if doc.Text == "" {
			fmt.Fprintf(&sb, "\n\n--- No text content found for %s (%s) ---\n", doc.Title, doc.URL)
			continue
		}
		fmt.Fprintf(&sb, "\n\n--- Context from %s (%s) ---\n", doc.Title, doc.URL)
		sb.WriteString(doc.Text)
	}

	if resolved == 0 {
		return NoRetrievableContext
	}
	return sb.String()
}

func findByURL(candidates []index.Document, url string) (index.Document, bool) {
	for _, doc := range candidates {
		if doc.URL == url {
			return doc, true
		}
	}
	return index.Document{}, false
}
