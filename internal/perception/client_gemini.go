package perception

import (
	"context"
	"net/http"
	"strings"
	"time"

	"aipm/internal/logging"

	"google.golang.org/genai"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // Optional; overrides the Gemini API endpoint
	Model   string
	Timeout time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		Model:   "gemini-2.5-flash",
		Timeout: 120 * time.Second,
	}
}

// GeminiClient implements LLMClient on the Google GenAI SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini client with default config.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	return NewGeminiClientWithConfig(ctx, DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a Gemini client with custom config.
func NewGeminiClientWithConfig(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, transportErr(ProviderGemini, 0, "API key not configured", nil)
	}
	defaults := DefaultGeminiConfig(config.APIKey)
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	cc := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: config.Timeout},
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(config.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, transportErr(ProviderGemini, 0, "failed to create GenAI client", err)
	}

	return &GeminiClient{
		client:  client,
		model:   config.Model,
		timeout: config.Timeout,
	}, nil
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[gemini] generate content: model=%s user_len=%d", c.model, len(userPrompt))

	genCfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(systemPrompt) != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), genCfg)
	if err != nil {
		return "", transportErr(ProviderGemini, 0, "generate content failed", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", transportErr(ProviderGemini, 0, "no completion returned", nil)
	}

	text := resp.Text()
	logging.APIDebug("[gemini] generate content done in %v: response_len=%d", time.Since(startTime), len(text))
	return text, nil
}

// GetModel returns the current model.
func (c *GeminiClient) GetModel() string {
	return c.model
}
