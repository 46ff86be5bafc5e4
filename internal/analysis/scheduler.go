package analysis

import (
	"context"
	"fmt"
	"strings"

	"aipm/internal/logging"
	"aipm/internal/rules"

	"golang.org/x/sync/errgroup"
)

// Partition splits rs into contiguous groups of at most size rules,
// preserving order. A size below 1 is treated as 1.
func Partition(rs []rules.Rule, size int) [][]rules.Rule {
	if size < 1 {
		size = 1
	}
	groups := make([][]rules.Rule, 0, (len(rs)+size-1)/size)
	for start := 0; start < len(rs); start += size {
		end := min(start+size, len(rs))
		groups = append(groups, rs[start:end])
	}
	return groups
}

// AnalyzeRules evaluates content against every rule and returns one verdict
// per distinct rule name. At most ParallelThreads evaluations are in flight
// at once. The only error is one wrapping ErrInvalidInput, returned before
// any evaluation starts.
//
// Cancelling ctx does not shorten the report: evaluations that could not
// complete still get an error verdict.
func (a *Analyzer) AnalyzeRules(ctx context.Context, content string, rs []rules.Rule) (Report, error) {
	if err := validateInput(content, rs); err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logging.CategoryScheduler, "AnalyzeRules")
	defer timer.Stop()

	groups := Partition(rs, a.parallelThreads)
	logging.Scheduler("analyzing %d rules in %d groups (parallel=%d)", len(rs), len(groups), a.parallelThreads)

	report := make(Report, len(rs))
	done := 0
	for i, group := range groups {
		verdicts := a.evaluateGroup(ctx, content, group)
		for _, v := range verdicts {
			report.Add(v)
		}
		done += len(group)

		logging.SchedulerDebug("group %d/%d settled (%d/%d rules)", i+1, len(groups), done, len(rs))
		if a.progress != nil {
			a.progress(Progress{Done: done, Total: len(rs), Group: i + 1, Groups: len(groups)})
		}
	}

	logging.Scheduler("analysis complete: %s", report.Summary())
	return report, nil
}

// evaluateGroup runs every rule in group concurrently and waits for all of
// them. Each goroutine owns one slot of the result slice.
func (a *Analyzer) evaluateGroup(ctx context.Context, content string, group []rules.Rule) []Verdict {
	verdicts := make([]Verdict, len(group))

	var g errgroup.Group
	g.SetLimit(len(group))
	for i, rule := range group {
		g.Go(func() error {
			verdicts[i] = a.EvaluateRule(ctx, rule, content)
			return nil
		})
	}
	// EvaluateRule never fails, so Wait only serves as the barrier.
	_ = g.Wait()

	return verdicts
}

func validateInput(content string, rs []rules.Rule) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: document content is empty", ErrInvalidInput)
	}
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: rule %d: %w", ErrInvalidInput, i, err)
		}
	}
	return nil
}
