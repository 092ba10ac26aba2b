package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hopewell-bot/hopewell/internal/index"
)

const (
	// DefaultServiceTimeout bounds a single extraction call. The model
	// service is local and fast; queries are short.
	DefaultServiceTimeout = 30 * time.Second
)

// ServiceConfig holds configuration for the HTTP extractor client.
type ServiceConfig struct {
	// BaseURL is the keyword service base URL, e.g. "http://localhost:5001".
	BaseURL string

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// ServiceExtractor calls a keyword-extraction model served over HTTP.
type ServiceExtractor struct {
	baseURL string
	client  *http.Client
}

// serviceRequest is the request body for the extraction endpoint.
type serviceRequest struct {
	Text string `json:"text"`
}

// serviceResponse is the response body. Keywords arrive in the same loose
// [term, weight] shape the preprocessed data files use.
type serviceResponse struct {
	Keywords []json.RawMessage `json:"keywords"`
}

// NewServiceExtractor creates an HTTP client for the keyword service.
func NewServiceExtractor(cfg ServiceConfig) *ServiceExtractor {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultServiceTimeout}
	}

	return &ServiceExtractor{
		baseURL: cfg.BaseURL,
		client:  client,
	}
}

// Extract posts the text to the service and decodes the weighted terms.
// Long texts are windowed and the per-window terms merged, each term keeping
// its highest observed weight.
func (e *ServiceExtractor) Extract(ctx context.Context, text string) ([]index.KeywordWeight, error) {
	windows := splitWindows(text, defaultWindowWords, defaultOverlapWords)
	if len(windows) <= 1 {
		return e.extractOne(ctx, text)
	}

	extractions := make([][]index.KeywordWeight, 0, len(windows))
	for _, window := range windows {
		extracted, err := e.extractOne(ctx, window)
		if err != nil {
			return nil, err
		}
		extractions = append(extractions, extracted)
	}
	return mergeKeywords(extractions...), nil
}

func (e *ServiceExtractor) extractOne(ctx context.Context, text string) ([]index.KeywordWeight, error) {
	body, err := json.Marshal(serviceRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("keyword service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result serviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return index.DecodeKeywords(result.Keywords), nil
}

// Ensure ServiceExtractor implements Extractor interface.
var _ Extractor = (*ServiceExtractor)(nil)
