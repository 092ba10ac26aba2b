// Package service orchestrates the question-answering pipeline: keyword
// retrieval, LLM-guided query reformulation on retrieval failure, LLM
// re-ranking, context assembly, and the session-grounded answer call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hopewell-bot/hopewell/internal/index"
	"github.com/hopewell-bot/hopewell/internal/rerank"
	"github.com/hopewell-bot/hopewell/internal/session"
)

// Degraded-context messages fed to the answer step when retrieval or
// re-ranking produced nothing usable. The answer step still runs.
const (
	// NoLocalResultsContext stands in when retrieval found nothing, even
	// after query reformulation.
	NoLocalResultsContext = "No specific documents were found in the local knowledge base for your current query, even after attempting to refine the search."

	// RerankBlockedContext stands in when the provider refused the
	// re-ranking prompt.
	RerankBlockedContext = "Re-ranking of local documents was blocked."

	// RerankFailedContext stands in when the re-ranking stage failed outright.
	RerankFailedContext = "Error during document re-ranking."
)

// Searcher retrieves ranked candidate documents for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]index.Document, error)
}

// Augmenter is the single-shot retrieval fallback.
type Augmenter interface {
	Augment(ctx context.Context, originalQuery string, history []session.Turn) ([]index.Document, error)
}

// Reranker re-orders candidates and returns selected reference URLs.
type Reranker interface {
	Rerank(ctx context.Context, originalQuery string, candidates []index.Document) ([]string, error)
}

// Pipeline wires the retrieval stages to the per-user session registry.
// One request runs the stages strictly in sequence; isolation across users
// comes from each user owning an independent session.
type Pipeline struct {
	searcher  Searcher
	augmenter Augmenter
	reranker  Reranker
	sessions  *session.Store
}

// NewPipeline creates a pipeline over the given stages and session registry.
func NewPipeline(searcher Searcher, augmenter Augmenter, reranker Reranker, sessions *session.Store) *Pipeline {
	return &Pipeline{
		searcher:  searcher,
		augmenter: augmenter,
		reranker:  reranker,
		sessions:  sessions,
	}
}

// Ask answers one query for one user. Stage failures degrade to partial or
// explanatory context; the returned text is always user-facing, never an
// internal error. The error return is reserved for invalid input.
func (p *Pipeline) Ask(ctx context.Context, userID, query string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	start := time.Now()
	sess := p.sessions.GetOrCreate(userID)

	// Step 1: keyword retrieval.
	candidates, err := p.searcher.Search(ctx, query)
	if err != nil {
		slog.Warn("retrieval failed", "user", userID, "error", err)
		candidates = nil
	}

	// Step 2: single-shot LLM-guided reformulation, only on empty retrieval.
	if len(candidates) == 0 {
		candidates, err = p.augmenter.Augment(ctx, query, sess.History())
		if err != nil {
			slog.Warn("query augmentation failed", "user", userID, "error", err)
			candidates = nil
		}
	}

	// Steps 3+4: re-rank and assemble grounding context.
	assembledContext := NoLocalResultsContext
	if len(candidates) > 0 {
		refs, err := p.reranker.Rerank(ctx, query, candidates)
		switch {
		case errors.Is(err, rerank.ErrBlocked):
			slog.Warn("reranking blocked", "user", userID, "error", err)
			assembledContext = RerankBlockedContext
		case err != nil:
			slog.Warn("reranking failed", "user", userID, "error", err)
			assembledContext = RerankFailedContext
		default:
			assembledContext = AssembleContext(refs, candidates)
		}
	}

	// Step 5: conversation-aware, context-grounded answer.
	answer := sess.Answer(ctx, query, assembledContext)

	slog.Info("query answered",
		"user", userID,
		"session", sess.ID(),
		"candidates", len(candidates),
		"duration", time.Since(start),
	)
	return answer, nil
}

// Reset clears the user's conversation. Returns false when there was no
// active session to reset.
func (p *Pipeline) Reset(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("user id is required")
	}
	return p.sessions.Reset(ctx, userID)
}
