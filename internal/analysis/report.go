package analysis

import (
	"fmt"
	"sort"
)

// Verdict is the outcome of evaluating one rule against a document.
type Verdict struct {
	RuleName      string `json:"-"`
	Decision      bool   `json:"decision"`
	Justification string `json:"justification"`
}

// Report maps rule names to their verdicts.
type Report map[string]Verdict

// Add inserts v under its rule name. A later verdict for the same name
// replaces the earlier one.
func (r Report) Add(v Verdict) {
	r[v.RuleName] = v
}

// Passed returns the number of passing verdicts.
func (r Report) Passed() int {
	n := 0
	for _, v := range r {
		if v.Decision {
			n++
		}
	}
	return n
}

// Failed returns the number of failing verdicts.
func (r Report) Failed() int {
	return len(r) - r.Passed()
}

// Names returns the rule names in sorted order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary returns the one-line tally, e.g. "3/4 rules passed".
func (r Report) Summary() string {
	return fmt.Sprintf("%d/%d rules passed", r.Passed(), len(r))
}
