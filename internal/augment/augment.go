// Package augment asks the LLM collaborator for a better search query when
// the initial keyword retrieval comes back empty, then retries retrieval
// exactly once with the suggestion.
package augment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hopewell-bot/hopewell/internal/index"
	"github.com/hopewell-bot/hopewell/internal/llm"
	"github.com/hopewell-bot/hopewell/internal/session"
)

// historyTurnsForGuidance is how many recent turns inform the reformulation.
const historyTurnsForGuidance = 4

// Searcher is the retrieval dependency: the augmenter calls it at most once.
type Searcher interface {
	Search(ctx context.Context, query string) ([]index.Document, error)
}

// Augmenter reformulates failed queries with LLM guidance.
type Augmenter struct {
	llm      llm.Client
	searcher Searcher
	topic    string
}

// New creates an augmenter. Topic names the knowledge base's domain so the
// model reformulates toward it.
func New(client llm.Client, searcher Searcher, topic string) *Augmenter {
	return &Augmenter{
		llm:      client,
		searcher: searcher,
		topic:    topic,
	}
}

// Augment asks for a single improved 2-5 word search string, using recent
// conversation history as a hint, and retries the search once with it.
// A blocked or empty suggestion yields empty results with no further
// attempts; this fallback never recurses.
func (a *Augmenter) Augment(ctx context.Context, originalQuery string, history []session.Turn) ([]index.Document, error) {
	snippet := session.FormatHistorySnippet(history, historyTurnsForGuidance)
	prompt := buildGuidancePrompt(originalQuery, snippet, a.topic)

	res, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("search guidance generation: %w", err)
	}
	if res.Blocked {
		slog.Warn("search guidance blocked", "reason", res.BlockReason)
		return nil, nil
	}

	suggestion := strings.TrimSpace(res.Text)
	if suggestion == "" {
		slog.Debug("search guidance returned no usable query")
		return nil, nil
	}

	slog.Debug("retrying search with suggested query", "original", originalQuery, "suggested", suggestion)
	return a.searcher.Search(ctx, suggestion)
}

// buildGuidancePrompt constructs the reformulation prompt with a strict
// output-only instruction.
func buildGuidancePrompt(query, historySnippet, topic string) string {
	var sb strings.Builder

	sb.WriteString("The user's current query is: \"")
	sb.WriteString(query)
	sb.WriteString("\"\n\n")
	sb.WriteString("My system's initial keyword-based search in a knowledge base about \"")
	sb.WriteString(topic)
	sb.WriteString("\" did not find relevant documents for this query.\n\n")
	sb.WriteString(historySnippet)
	sb.WriteString("\n")
	sb.WriteString("Based on the user's current query AND the recent conversation context (if available), ")
	sb.WriteString("formulate a single, improved search query string (2-5 words ideally) that is more likely ")
	sb.WriteString("to find relevant documents in the knowledge base.\n\n")
	sb.WriteString("Output ONLY the improved search query string and nothing else. Do not add any preamble or explanation.\n")

	return sb.String()
}
