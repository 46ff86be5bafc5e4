package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "aipm.yaml"

// Config holds all aipm configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Rule evaluation
	Analysis AnalysisConfig `yaml:"analysis"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Report history
	Store StoreConfig `yaml:"store"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderOpenRouter,
			Model:    DefaultModel(ProviderOpenRouter),
			Timeout:  "120s",
			SiteName: "aipm",
		},

		Analysis: AnalysisConfig{
			ParallelThreads: DefaultParallelThreads,
			Catalog:         "pediatric-journal",
		},

		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},

		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(".aipm", "history.db"),
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// The model default depends on the provider, so it is resolved after decoding.
	cfg.LLM.Model = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel(cfg.LLM.Provider)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API keys, lowest precedence first
	keys := []struct {
		env      string
		provider string
	}{
		{"GEMINI_API_KEY", ProviderGemini},
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"OPENROUTER_API_KEY", ProviderOpenRouter},
	}
	for _, k := range keys {
		key := os.Getenv(k.env)
		if key == "" {
			continue
		}
		if c.LLM.Provider != k.provider {
			c.LLM.Provider = k.provider
			c.LLM.Model = DefaultModel(k.provider)
		}
		c.LLM.APIKey = key
	}

	if model := os.Getenv("AIPM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if v := os.Getenv("AIPM_PARALLEL_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.ParallelThreads = n
		}
	}
	if path := os.Getenv("AIPM_DB"); path != "" {
		c.Store.Path = path
	}
	if level := os.Getenv("AIPM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm provider %q (want one of %s)", c.LLM.Provider, strings.Join(Providers(), ", "))
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm timeout %q: %w", c.LLM.Timeout, err)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the store is enabled")
	}
	return nil
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}
