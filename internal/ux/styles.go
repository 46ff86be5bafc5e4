// Package ux renders analysis reports for people: the plain text report
// layout, styled terminal output, Markdown and JSON. It also draws the
// progress bar shown during long batches.
package ux

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Success     = lipgloss.Color("#8BC34A") // Lime Green
	Destructive = lipgloss.Color("#e53935") // Red
	Info        = lipgloss.Color("#2196F3") // Blue
	Muted       = lipgloss.Color("#6b7a90")
)

// Styles holds the lipgloss styles used by the styled renderers.
type Styles struct {
	Title     lipgloss.Style
	RuleName  lipgloss.Style
	Label     lipgloss.Style
	Pass      lipgloss.Style
	Fail      lipgloss.Style
	Separator lipgloss.Style
	Summary   lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
	Border    lipgloss.Style
}

// DefaultStyles returns the standard styles.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(Info),
		RuleName:  lipgloss.NewStyle().Bold(true),
		Label:     lipgloss.NewStyle().Foreground(Muted),
		Pass:      lipgloss.NewStyle().Bold(true).Foreground(Success),
		Fail:      lipgloss.NewStyle().Bold(true).Foreground(Destructive),
		Separator: lipgloss.NewStyle().Foreground(Muted),
		Summary:   lipgloss.NewStyle().Bold(true),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(Info).Padding(0, 1),
		Cell:      lipgloss.NewStyle().Padding(0, 1),
		Border:    lipgloss.NewStyle().Foreground(Muted),
	}
}
