// Package rules defines formatting rules and the catalogs they are loaded from.
package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRule is returned for rules that cannot be evaluated (empty name)
// and for catalogs with duplicate rule names.
var ErrInvalidRule = errors.New("invalid rule")

// Rule is a named natural-language formatting criterion.
// Rules are immutable once constructed.
type Rule struct {
	name        string
	instruction string
}

// New creates a validated rule.
func New(name, instruction string) (Rule, error) {
	r := Rule{name: name, instruction: instruction}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// MustNew is like New but panics on an invalid rule. Intended for
// package-level catalog definitions and tests.
func MustNew(name, instruction string) Rule {
	r, err := New(name, instruction)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the rule's identifier, used as the report key.
func (r Rule) Name() string { return r.name }

// Instruction returns the compliance criteria in natural language.
func (r Rule) Instruction() string { return r.instruction }

// Validate reports whether the rule can be evaluated.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.name) == "" {
		return fmt.Errorf("%w: rule name is empty", ErrInvalidRule)
	}
	return nil
}

// String implements fmt.Stringer.
func (r Rule) String() string {
	return r.name
}

// CheckUnique returns an error wrapping ErrInvalidRule naming the first
// duplicated rule name in rs.
func CheckUnique(rs []Rule) error {
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if _, dup := seen[r.name]; dup {
			return fmt.Errorf("%w: duplicate rule name %q", ErrInvalidRule, r.name)
		}
		seen[r.name] = struct{}{}
	}
	return nil
}
