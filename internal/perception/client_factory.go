package perception

import (
	"context"
	"fmt"
	"os"
	"time"

	"aipm/internal/config"
)

// NewClient creates the completion client described by cfg, wrapped in a
// TracingClient so every call is logged.
// An empty API key is filled in by DetectProvider.
func NewClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration) (LLMClient, error) {
	cfg, err := DetectProvider(cfg)
	if err != nil {
		return nil, err
	}

	var client LLMClient
	switch Provider(cfg.Provider) {
	case ProviderOpenRouter, "":
		client = NewOpenRouterClientWithConfig(OpenRouterConfig{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Timeout:  timeout,
			SiteURL:  cfg.SiteURL,
			SiteName: cfg.SiteName,
		})
	case ProviderOpenAI:
		client = NewOpenAIClientWithConfig(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		})
	case ProviderGemini:
		gc, err := NewGeminiClientWithConfig(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		client = gc
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	return NewTracingClient(client, Provider(cfg.Provider)), nil
}

// DetectProvider returns cfg unchanged when it carries an API key, otherwise
// it falls back to environment variables.
// Priority: config > env vars (OPENROUTER > OPENAI > GEMINI)
func DetectProvider(cfg config.LLMConfig) (config.LLMConfig, error) {
	if cfg.APIKey != "" {
		return cfg, nil
	}

	providers := []struct {
		envVar   string
		provider string
	}{
		{"OPENROUTER_API_KEY", config.ProviderOpenRouter},
		{"OPENAI_API_KEY", config.ProviderOpenAI},
		{"GEMINI_API_KEY", config.ProviderGemini},
	}

	for _, p := range providers {
		key := os.Getenv(p.envVar)
		if key == "" {
			continue
		}
		if cfg.Provider != p.provider {
			cfg.Provider = p.provider
			cfg.Model = config.DefaultModel(p.provider)
			cfg.BaseURL = ""
		}
		cfg.APIKey = key
		return cfg, nil
	}

	return cfg, fmt.Errorf("no API key configured for provider %q; set llm.api_key or one of OPENROUTER_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY", cfg.Provider)
}

// ModelOf returns the model name of client when it exposes one.
func ModelOf(client LLMClient) string {
	if m, ok := client.(interface{ GetModel() string }); ok {
		return m.GetModel()
	}
	return ""
}
