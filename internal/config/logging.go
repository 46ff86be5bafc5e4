package config

import "aipm/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, console
	File       string          `yaml:"file"`       // optional extra output
	Categories map[string]bool `yaml:"categories"` // per-category toggles
}

// LoggerConfig converts to the logging package's configuration.
func (c LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		Categories: c.Categories,
	}
}
