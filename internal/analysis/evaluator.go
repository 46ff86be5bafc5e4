package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aipm/internal/logging"
	"aipm/internal/rules"
)

const (
	errorPrefix = "Error analyzing rule: "
	parsePrefix = "Failed to parse AI response: "
)

// EvaluateRule judges content against a single rule. It always returns a
// verdict: client failures, panics and unreadable responses all become
// negative verdicts whose justification says what went wrong.
func (a *Analyzer) EvaluateRule(ctx context.Context, rule rules.Rule, content string) Verdict {
	start := time.Now()

	raw, err := a.complete(ctx, BuildPrompt(rule, content))
	if err != nil {
		logging.EvaluationWarn("rule %q failed after %v: %v", rule.Name(), time.Since(start), err)
		return Verdict{
			RuleName:      rule.Name(),
			Decision:      false,
			Justification: errorPrefix + err.Error(),
		}
	}

	parsed, err := a.interpreter.Parse(raw)
	if err != nil {
		logging.EvaluationWarn("rule %q: unreadable response after %v", rule.Name(), time.Since(start))
		return Verdict{
			RuleName:      rule.Name(),
			Decision:      false,
			Justification: parsePrefix + raw,
		}
	}

	logging.Evaluation("rule %q evaluated in %v: decision=%t (%s)", rule.Name(), time.Since(start), parsed.Decision, parsed.Method)
	return Verdict{
		RuleName:      rule.Name(),
		Decision:      parsed.Decision,
		Justification: parsed.Justification,
	}
}

// complete calls the client, turning a panic into an error.
func (a *Analyzer) complete(ctx context.Context, prompt string) (raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryEvaluation).Error("PANIC RECOVERED in completion client: %v", r)
			raw, err = "", fmt.Errorf("completion client panicked: %v", r)
		}
	}()

	if a.client == nil {
		return "", errors.New("no completion client configured")
	}
	return a.client.CompleteWithSystem(ctx, a.systemPrompt, prompt)
}
