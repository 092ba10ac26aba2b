// Package rerank sends retrieval candidates to the LLM collaborator for
// relevance re-ordering and parses the selected references back out of the
// free-text response.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hopewell-bot/hopewell/internal/index"
	"github.com/hopewell-bot/hopewell/internal/llm"
)

// ErrBlocked reports that the provider refused the re-ranking prompt. The
// caller distinguishes it from transport failures when choosing the fallback
// context.
var ErrBlocked = errors.New("re-ranking blocked by provider")

const (
	// maxKeywordsPerCandidate bounds the keyword listing per document in
	// the prompt.
	maxKeywordsPerCandidate = 7

	// maxSelected is how many entries the model is asked to select.
	maxSelected = 10
)

// urlLinePattern matches the fixed "URL: <http(s) url>" response layout.
// Lines that deviate from it are ignored entirely.
var urlLinePattern = regexp.MustCompile(`(?im)^\s*URL:\s*(https?://\S+)`)

// Reranker re-orders candidates by LLM-judged relevance.
type Reranker struct {
	llm llm.Client
}

// New creates a reranker.
func New(client llm.Client) *Reranker {
	return &Reranker{llm: client}
}

// Rerank returns the URLs of the candidates the model considers relevant,
// in the order the model emitted them. Every returned URL is guaranteed to
// belong to a candidate; duplicates in the raw response are preserved
// (de-duplication happens during context assembly). An empty response yields
// an empty list, not an error; a blocked response returns ErrBlocked.
func (r *Reranker) Rerank(ctx context.Context, originalQuery string, candidates []index.Document) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := buildRerankPrompt(originalQuery, FormatCandidates(candidates))

	res, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("rerank generation: %w", err)
	}
	if res.Blocked {
		slog.Warn("reranking blocked", "reason", res.BlockReason)
		if res.BlockReason != "" {
			return nil, fmt.Errorf("%w: %s", ErrBlocked, res.BlockReason)
		}
		return nil, ErrBlocked
	}
	if res.Text == "" {
		slog.Debug("empty rerank response")
		return nil, nil
	}

	urls := parseReferenceURLs(res.Text, candidates)
	slog.Debug("reranking complete", "candidates", len(candidates), "selected", len(urls))
	return urls, nil
}

// FormatCandidates renders the candidate set as a numbered listing of
// title, URL, and top weighted keywords.
func FormatCandidates(candidates []index.Document) string {
	if len(candidates) == 0 {
		return "No specific pages found in the local knowledge base."
	}

	var sb strings.Builder
	sb.WriteString("Locally found pages from my knowledge base:\n\n")
	for i, doc := range candidates {
		fmt.Fprintf(&sb, "%d. Title: %s\n", i+1, doc.Title)
		fmt.Fprintf(&sb, "   URL: %s\n", doc.URL)

		kws := doc.Keywords
		if len(kws) > maxKeywordsPerCandidate {
			kws = kws[:maxKeywordsPerCandidate]
		}
		if len(kws) > 0 {
			rendered := make([]string, len(kws))
			for j, kw := range kws {
				rendered[j] = fmt.Sprintf("%s (weight: %.2f)", kw.Term, kw.Weight)
			}
			fmt.Fprintf(&sb, "   Associated Keywords: %s\n", strings.Join(rendered, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// buildRerankPrompt asks the model to select and order the most relevant
// entries using only the titles and URLs from the listing.
func buildRerankPrompt(originalQuery, candidateListing string) string {
	var sb strings.Builder

	sb.WriteString("Original User Query (for this re-ranking task): \"")
	sb.WriteString(originalQuery)
	sb.WriteString("\"\n\n")
	sb.WriteString("Based on THIS query, my local system performed an initial search and retrieved the following ")
	sb.WriteString("potentially relevant pages from my knowledge base. Each page is listed with its title, URL, and ")
	sb.WriteString("a selection of its most relevant keywords along with their importance weights:\n\n")
	sb.WriteString(candidateListing)
	sb.WriteString("\nYour Task:\n")
	sb.WriteString("Analyze the Original User Query and the provided list of pages. For each page, consider its ")
	sb.WriteString("title, URL, and especially its Associated Keywords and their weights to determine its relevance ")
	sb.WriteString("to the original query.\n")
	fmt.Fprintf(&sb, "Re-rank these pages and select up to the top %d most relevant pages that directly address the user's original query.\n\n", maxSelected)
	sb.WriteString("Output Format:\n")
	sb.WriteString("- If relevant pages are found, return them as a numbered list. For each item, include ONLY the original \"Title\" and \"URL\".\n")
	sb.WriteString("- The URL must be on its own line, prefixed with \"   URL: \".\n")
	sb.WriteString("- If you determine that NONE of the provided pages are sufficiently relevant, state that clearly.\n")

	return sb.String()
}

// parseReferenceURLs scans for well-formed URL lines and keeps only those
// that resolve to a candidate, preserving response order and duplicates.
func parseReferenceURLs(response string, candidates []index.Document) []string {
	known := make(map[string]struct{}, len(candidates))
	for _, doc := range candidates {
		known[doc.URL] = struct{}{}
	}

	var urls []string
	for _, match := range urlLinePattern.FindAllStringSubmatch(response, -1) {
		url := strings.TrimSpace(match[1])
		if _, ok := known[url]; !ok {
			slog.Debug("dropping reranked url not in candidate set", "url", url)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
