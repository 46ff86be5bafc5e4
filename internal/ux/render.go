package ux

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"aipm/internal/analysis"

	"github.com/charmbracelet/glamour"
)

const separatorWidth = 50

// Order returns the report's rule names: first those in preferred that are
// present, in that order, then the rest sorted.
func Order(r analysis.Report, preferred ...string) []string {
	out := make([]string, 0, len(r))
	seen := make(map[string]bool, len(r))
	for _, name := range preferred {
		if _, ok := r[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range r {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func decisionLabel(pass bool) string {
	if pass {
		return "✅ PASS"
	}
	return "❌ FAIL"
}

// RenderText renders r as plain text:
//
//	Rule: <name>
//	Decision: ✅ PASS
//	Justification: <text>
//	--------------------------------------------------
//
// followed by a blank line and "Summary: p/t rules passed".
func RenderText(r analysis.Report, order ...string) string {
	var sb strings.Builder
	for _, name := range Order(r, order...) {
		v := r[name]
		fmt.Fprintf(&sb, "Rule: %s\n", name)
		fmt.Fprintf(&sb, "Decision: %s\n", decisionLabel(v.Decision))
		fmt.Fprintf(&sb, "Justification: %s\n", v.Justification)
		sb.WriteString(strings.Repeat("-", separatorWidth))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nSummary: %s\n", r.Summary())
	return sb.String()
}

// RenderStyledText is RenderText with lipgloss styling for terminals.
func RenderStyledText(r analysis.Report, styles Styles, order ...string) string {
	var sb strings.Builder
	for _, name := range Order(r, order...) {
		v := r[name]
		decision := styles.Fail.Render(decisionLabel(false))
		if v.Decision {
			decision = styles.Pass.Render(decisionLabel(true))
		}
		sb.WriteString(styles.Label.Render("Rule:") + " " + styles.RuleName.Render(name) + "\n")
		sb.WriteString(styles.Label.Render("Decision:") + " " + decision + "\n")
		sb.WriteString(styles.Label.Render("Justification:") + " " + v.Justification + "\n")
		sb.WriteString(styles.Separator.Render(strings.Repeat("-", separatorWidth)) + "\n")
	}
	sb.WriteString("\n" + styles.Summary.Render("Summary: "+r.Summary()) + "\n")
	return sb.String()
}

// RenderMarkdown renders r as a Markdown document with one section per rule.
func RenderMarkdown(r analysis.Report, title string, order ...string) string {
	if title == "" {
		title = "Formatting Report"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "**Summary:** %s\n\n", r.Summary())

	if len(r) > 0 {
		sb.WriteString("| Rule | Decision |\n|---|---|\n")
		for _, name := range Order(r, order...) {
			fmt.Fprintf(&sb, "| %s | %s |\n", escapeCell(name), decisionLabel(r[name].Decision))
		}
		sb.WriteString("\n")
	}

	for _, name := range Order(r, order...) {
		v := r[name]
		fmt.Fprintf(&sb, "## %s\n\n", name)
		fmt.Fprintf(&sb, "**Decision:** %s\n\n", decisionLabel(v.Decision))
		fmt.Fprintf(&sb, "%s\n\n", v.Justification)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderTerminalMarkdown renders Markdown for a terminal with glamour.
// A width of zero or less defaults to 80 columns.
func RenderTerminalMarkdown(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// RenderJSON renders r as indented JSON keyed by rule name.
func RenderJSON(r analysis.Report) ([]byte, error) {
	if r == nil {
		r = analysis.Report{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
