package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultOllamaBaseURL is the default Ollama API endpoint.
	DefaultOllamaBaseURL = "http://localhost:11434"

	// DefaultOllamaModel is the default local model to use.
	DefaultOllamaModel = "llama3.2"
)

// OllamaClient implements the Client interface against a local Ollama server.
// Ollama performs no content-safety blocking, so Result.Blocked is always false.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	model      string
}

// OllamaOption is a functional option for configuring OllamaClient.
type OllamaOption func(*OllamaClient)

// WithBaseURL sets a custom base URL for the Ollama API.
func WithBaseURL(url string) OllamaOption {
	return func(c *OllamaClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(c *OllamaClient) {
		c.httpClient = client
	}
}

// WithModel sets the model for the client.
func WithModel(model string) OllamaOption {
	return func(c *OllamaClient) {
		c.model = model
	}
}

// NewOllamaClient creates a new Ollama client with the given options.
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		baseURL: DefaultOllamaBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for generation
		},
		model: DefaultOllamaModel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ollamaGenerateRequest is the request body for Ollama's generate API.
type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaGenerateResponse is the response from Ollama's generate API.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// ollamaMessage is one turn of an Ollama chat exchange.
type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatRequest is the request body for Ollama's chat API.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// ollamaChatResponse is the response from Ollama's chat API.
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Generate sends a standalone prompt to Ollama and returns the response.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (Result, error) {
	reqBody := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
	}

	var result ollamaGenerateResponse
	if err := c.post(ctx, "/api/generate", reqBody, &result); err != nil {
		return Result{}, err
	}

	return Result{Text: strings.TrimSpace(result.Response)}, nil
}

// NewChat creates a chat handle that keeps message history client-side and
// replays it through Ollama's chat API on every Send.
func (c *OllamaClient) NewChat(_ context.Context) (Chat, error) {
	return &ollamaChat{client: c}, nil
}

type ollamaChat struct {
	client   *OllamaClient
	mu       sync.Mutex
	messages []ollamaMessage
}

func (ch *ollamaChat) Send(ctx context.Context, prompt string) (Result, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	messages := append(ch.messages, ollamaMessage{Role: "user", Content: prompt})
	reqBody := ollamaChatRequest{
		Model:    ch.client.model,
		Messages: messages,
	}

	var result ollamaChatResponse
	if err := ch.client.post(ctx, "/api/chat", reqBody, &result); err != nil {
		// Failed sends are not recorded: the server never saw the turn.
		return Result{}, err
	}

	ch.messages = append(messages, result.Message)
	return Result{Text: strings.TrimSpace(result.Message.Content)}, nil
}

// post executes a JSON request against the Ollama API.
func (c *OllamaClient) post(ctx context.Context, path string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// Ensure OllamaClient implements Client interface.
var _ Client = (*OllamaClient)(nil)
