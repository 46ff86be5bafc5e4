package config

// DefaultParallelThreads bounds concurrent rule evaluations when unset.
const DefaultParallelThreads = 8

// AnalysisConfig configures rule evaluation.
type AnalysisConfig struct {
	// Rules evaluated concurrently per group; values < 1 are treated as 1.
	ParallelThreads int `yaml:"parallel_threads"`

	// Built-in catalog name or path to a catalog YAML file.
	Catalog string `yaml:"catalog"`
}

// StoreConfig configures the report history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
