package perception

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	SiteURL  string // Optional
	SiteName string // Optional
}

// DefaultOpenRouterConfig returns sensible defaults.
func DefaultOpenRouterConfig(apiKey string) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:   apiKey,
		BaseURL:  "https://openrouter.ai/api/v1",
		Model:    "openai/gpt-4o-mini",
		Timeout:  120 * time.Second,
		SiteName: "aipm",
	}
}

// OpenRouterClient implements LLMClient for the OpenRouter API.
// OpenRouter provides access to multiple LLM providers through a single API.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	siteURL    string
	siteName   string
	httpClient *http.Client
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(apiKey string) *OpenRouterClient {
	return NewOpenRouterClientWithConfig(DefaultOpenRouterConfig(apiKey))
}

// NewOpenRouterClientWithConfig creates a new OpenRouter client with custom config.
func NewOpenRouterClientWithConfig(config OpenRouterConfig) *OpenRouterClient {
	defaults := DefaultOpenRouterConfig(config.APIKey)
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &OpenRouterClient{
		apiKey:   config.APIKey,
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		model:    config.Model,
		siteURL:  config.SiteURL,
		siteName: config.SiteName,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Complete sends a prompt and returns the completion.
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenRouterClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return executeChatRequest(ctx, chatCall{
		provider:   ProviderOpenRouter,
		httpClient: c.httpClient,
		url:        c.baseURL + "/chat/completions",
		apiKey:     c.apiKey,
		// OpenRouter-specific attribution headers
		headers: map[string]string{
			"HTTP-Referer": c.siteURL,
			"X-Title":      c.siteName,
		},
		request: newChatRequest(c.model, systemPrompt, userPrompt),
	})
}

// GetModel returns the current model.
func (c *OpenRouterClient) GetModel() string {
	return c.model
}
