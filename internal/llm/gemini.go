package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is the default Gemini model.
	DefaultGeminiModel = "gemini-2.0-flash"

	// DefaultGeminiTemperature keeps answers factual rather than creative.
	DefaultGeminiTemperature = 0.3
)

// geminiSafetySettings blocks medium-and-above harm across the four
// standard categories for every request, stateless or chat.
var geminiSafetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

// GeminiClient implements the Client interface using the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// GeminiOption is a functional option for configuring GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiModel sets the model for the client.
func WithGeminiModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// NewGeminiClient creates a Gemini client with safety settings applied.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	c := &GeminiClient{
		client: client,
		model:  DefaultGeminiModel,
		config: &genai.GenerateContentConfig{
			SafetySettings: geminiSafetySettings,
			Temperature:    genai.Ptr[float32](DefaultGeminiTemperature),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Generate sends a standalone prompt to Gemini.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (Result, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		c.config,
	)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate: %w", err)
	}

	return resultFromResponse(resp), nil
}

// NewChat creates a Gemini chat session with empty history.
func (c *GeminiClient) NewChat(ctx context.Context) (Chat, error) {
	chat, err := c.client.Chats.Create(ctx, c.model, c.config, nil)
	if err != nil {
		return nil, fmt.Errorf("creating gemini chat: %w", err)
	}
	return &geminiChat{chat: chat}, nil
}

// geminiChat wraps the SDK chat object, which accumulates history internally.
type geminiChat struct {
	chat *genai.Chat
}

func (g *geminiChat) Send(ctx context.Context, prompt string) (Result, error) {
	resp, err := g.chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return Result{}, fmt.Errorf("gemini chat send: %w", err)
	}
	return resultFromResponse(resp), nil
}

// resultFromResponse maps the SDK response onto Result, surfacing prompt
// feedback blocks instead of treating them as errors.
func resultFromResponse(resp *genai.GenerateContentResponse) Result {
	if resp == nil {
		return Result{}
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := fb.BlockReasonMessage
		if reason == "" {
			reason = string(fb.BlockReason)
		}
		return Result{Blocked: true, BlockReason: reason}
	}

	return Result{Text: strings.TrimSpace(resp.Text())}
}

// Ensure GeminiClient implements Client interface.
var _ Client = (*GeminiClient)(nil)
