package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"aipm/internal/logging"
)

const maxResponseBytes = 10 * 1024 * 1024

// maxErrorMessageBytes caps how much of a raw error body is kept.
const maxErrorMessageBytes = 512

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		Timeout: 120 * time.Second,
	}
}

// OpenAIClient implements LLMClient for the OpenAI Chat Completions API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a new OpenAI client with default config.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom config.
func NewOpenAIClientWithConfig(config OpenAIConfig) *OpenAIClient {
	defaults := DefaultOpenAIConfig(config.APIKey)
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &OpenAIClient{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Complete sends a prompt and returns the completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return executeChatRequest(ctx, chatCall{
		provider:   ProviderOpenAI,
		httpClient: c.httpClient,
		url:        c.baseURL + "/chat/completions",
		apiKey:     c.apiKey,
		request:    newChatRequest(c.model, systemPrompt, userPrompt),
	})
}

// GetModel returns the current model.
func (c *OpenAIClient) GetModel() string {
	return c.model
}

// =============================================================================
// OPENAI-COMPATIBLE CHAT COMPLETIONS
// =============================================================================

// chatMessage is a message in an OpenAI-compatible conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenAI-compatible request body.
// Sampling parameters are left to the provider defaults.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatResponse is the subset of the OpenAI-compatible response we read.
type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func newChatRequest(model, systemPrompt, userPrompt string) chatRequest {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})
	return chatRequest{
		Model:    model,
		Messages: messages,
	}
}

// chatCall bundles one chat-completions request.
type chatCall struct {
	provider   Provider
	httpClient *http.Client
	url        string
	apiKey     string
	headers    map[string]string
	request    chatRequest
}

// executeChatRequest performs exactly one HTTP request; there are no retries.
func executeChatRequest(ctx context.Context, call chatCall) (string, error) {
	if call.apiKey == "" {
		return "", transportErr(call.provider, 0, "API key not configured", nil)
	}

	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && call.httpClient.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[%s] chat completion: model=%s messages=%d", call.provider, call.request.Model, len(call.request.Messages))

	jsonData, err := json.Marshal(call.request)
	if err != nil {
		return "", transportErr(call.provider, 0, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, call.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", transportErr(call.provider, 0, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+call.apiKey)
	for k, v := range call.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := call.httpClient.Do(req)
	if err != nil {
		return "", transportErr(call.provider, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transportErr(call.provider, resp.StatusCode, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", transportErr(call.provider, resp.StatusCode, apiErrorMessage(body), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", transportErr(call.provider, 0, "failed to parse response", err)
	}
	if parsed.Error != nil {
		return "", transportErr(call.provider, 0, "API error: "+parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return "", transportErr(call.provider, 0, "no completion returned", nil)
	}

	content := parsed.Choices[0].Message.Content
	logging.APIDebug("[%s] chat completion done in %v: response_len=%d total_tokens=%d",
		call.provider, time.Since(startTime), len(content), parsed.Usage.TotalTokens)
	return content, nil
}

// apiErrorMessage extracts error.message from an error body, falling back
// to the trimmed body itself.
func apiErrorMessage(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return truncateUTF8(strings.TrimSpace(string(body)), maxErrorMessageBytes)
}

// truncateUTF8 shortens s to at most max bytes without splitting a rune,
// marking the cut with "...".
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
