package config

// Supported completion providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
)

// LLMConfig configures the completion service used to judge rules.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openrouter, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// OpenRouter attribution headers (HTTP-Referer / X-Title)
	SiteURL  string `yaml:"site_url"`
	SiteName string `yaml:"site_name"`
}

// Providers lists the supported provider names.
func Providers() []string {
	return []string{ProviderOpenRouter, ProviderOpenAI, ProviderGemini}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "openai/gpt-4o-mini"
	}
}
