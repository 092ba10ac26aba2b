// Package keywords provides access to the keyword-extraction collaborator.
// The extraction model itself is external; this package only defines the
// contract and the clients that speak it.
package keywords

import (
	"context"

	"github.com/hopewell-bot/hopewell/internal/index"
)

// Extractor turns free text into an ordered sequence of weighted terms.
type Extractor interface {
	// Extract may return an empty sequence; no upper bound on length is
	// guaranteed. Order is most-relevant first.
	Extract(ctx context.Context, text string) ([]index.KeywordWeight, error)
}
