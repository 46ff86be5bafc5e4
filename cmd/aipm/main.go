// Command aipm checks a manuscript against a catalog of formatting rules,
// asking a language model to judge each rule.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"aipm/internal/config"
	"aipm/internal/logging"
	"aipm/internal/perception"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	// Global flags
	configPath string
	verbose    bool
	apiKey     string
	timeout    time.Duration

	// Loaded by the root command before any subcommand runs
	cfg *config.Config

	// Logger
	logger = zap.NewNop()
)

// errRulesFailed is returned by check --fail when any rule did not pass.
var errRulesFailed = errors.New("formatting rules failed")

// newClient builds the completion client; tests substitute a fake.
var newClient = func(ctx context.Context, c *config.Config) (perception.LLMClient, error) {
	t := c.GetLLMTimeout()
	if timeout > 0 {
		t = timeout
	}
	return perception.NewClient(ctx, c.LLM, t)
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aipm",
	Short: "aipm - AI-assisted manuscript formatting checks",
	Long: `aipm checks a manuscript against a catalog of formatting rules.

Each rule is a short instruction ("Does the manuscript have an abstract?").
The document is sent to a language model once per rule and the model's
yes/no verdict is collected into a report. Rules are evaluated in parallel
groups; a failing rule never stops the others.

Supported documents: .docx, .html, .txt and .md.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (or set OPENROUTER_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request LLM timeout (default: llm.timeout from config)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRulesFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// setup loads configuration and initializes logging.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiKey != "" {
		loaded.LLM.APIKey = apiKey
	}
	if verbose {
		loaded.Logging.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	l, err := logging.Initialize(loaded.Logging.LoggerConfig())
	if err != nil {
		return err
	}
	logger = l
	cfg = loaded

	logging.BootDebug("config loaded: path=%s provider=%s model=%s parallel=%d",
		configPath, cfg.LLM.Provider, cfg.LLM.Model, cfg.Analysis.ParallelThreads)
	return nil
}

// currentConfig returns the loaded config, or defaults when setup did not run.
func currentConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or 0 when unknown.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
