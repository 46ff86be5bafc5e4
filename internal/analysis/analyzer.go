// Package analysis checks a document against a set of formatting rules by
// asking a completion service to judge each rule, a bounded number at a time.
//
// Rules are evaluated in fixed-size groups. Every rule in a group is sent
// concurrently, and the next group starts only after the whole group has
// settled. Failures never abort a batch: a rule whose evaluation fails gets
// a negative verdict explaining why.
package analysis

import (
	"aipm/internal/articulation"
	"aipm/internal/config"
	"aipm/internal/perception"
)

// Progress describes how far an AnalyzeRules call has got. It is reported
// after each group settles.
type Progress struct {
	Done   int // rules evaluated so far
	Total  int // rules in the batch
	Group  int // 1-based index of the group that just settled
	Groups int // number of groups in the batch
}

// Analyzer evaluates rules against documents with a shared completion client.
// An Analyzer is safe for concurrent use once constructed.
type Analyzer struct {
	client          perception.LLMClient
	interpreter     *articulation.Interpreter
	parallelThreads int
	systemPrompt    string
	progress        func(Progress)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithParallelThreads sets the group size. Values below 1 are treated as 1.
func WithParallelThreads(n int) Option {
	return func(a *Analyzer) { a.parallelThreads = n }
}

// WithProgress installs a hook called after every group barrier.
// The hook runs on the AnalyzeRules goroutine.
func WithProgress(fn func(Progress)) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Analyzer) { a.systemPrompt = prompt }
}

// WithInterpreter shares an Interpreter, e.g. to collect parse statistics
// across several analyzers.
func WithInterpreter(in *articulation.Interpreter) Option {
	return func(a *Analyzer) {
		if in != nil {
			a.interpreter = in
		}
	}
}

// New creates an Analyzer that sends every evaluation through client.
func New(client perception.LLMClient, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:          client,
		interpreter:     articulation.NewInterpreter(),
		parallelThreads: config.DefaultParallelThreads,
		systemPrompt:    DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.parallelThreads < 1 {
		a.parallelThreads = 1
	}
	return a
}

// ParallelThreads returns the effective group size.
func (a *Analyzer) ParallelThreads() int {
	return a.parallelThreads
}

// InterpreterStats returns the parse statistics of every response seen so far.
func (a *Analyzer) InterpreterStats() articulation.InterpreterStats {
	return a.interpreter.Stats()
}
