// Package llm provides interfaces and implementations for Large Language Model clients.
package llm

import (
	"context"
)

// Result is the outcome of a single generation. A content-safety refusal
// arrives as Blocked=true with an optional human-readable reason; Text is
// empty in that case.
type Result struct {
	// Text contains the model's response, trimmed.
	Text string

	// Blocked reports that the provider refused the prompt for policy reasons.
	Blocked bool

	// BlockReason carries the provider's explanation when Blocked is true.
	BlockReason string
}

// Client defines the interface for Large Language Model providers.
type Client interface {
	// Generate sends a standalone prompt and returns the complete response.
	// It carries no conversational state between calls.
	Generate(ctx context.Context, prompt string) (Result, error)

	// NewChat creates a stateful chat handle. The provider accumulates turn
	// history inside the handle; each Send sees all prior turns.
	NewChat(ctx context.Context) (Chat, error)
}

// Chat is a stateful conversation handle owned by a single session.
// Implementations are not required to be safe for concurrent Send calls.
type Chat interface {
	Send(ctx context.Context, prompt string) (Result, error)
}
