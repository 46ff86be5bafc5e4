package ux

import (
	"context"
	"errors"
	"fmt"
	"io"

	"aipm/internal/analysis"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned by RunWithProgress when the user quits early.
var ErrInterrupted = errors.New("analysis interrupted")

// AnalyzeFunc runs an analysis, reporting progress through report.
type AnalyzeFunc func(ctx context.Context, report func(analysis.Progress)) (analysis.Report, error)

type progressMsg analysis.Progress

type doneMsg struct {
	report analysis.Report
	err    error
}

// progressModel is the bubbletea model behind RunWithProgress.
type progressModel struct {
	bar       progress.Model
	label     string
	current   analysis.Progress
	done      bool
	cancelled bool
	styles    Styles
}

func newProgressModel(label string, total int) progressModel {
	return progressModel{
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		label:   label,
		current: analysis.Progress{Total: total},
		styles:  DefaultStyles(),
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-20, 60))
	case progressMsg:
		m.current = analysis.Progress(msg)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// percent returns the completed fraction in [0, 1].
func (m progressModel) percent() float64 {
	if m.current.Total <= 0 {
		return 0
	}
	return float64(m.current.Done) / float64(m.current.Total)
}

func (m progressModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	status := fmt.Sprintf("%d/%d rules", m.current.Done, m.current.Total)
	if m.current.Groups > 0 {
		status += fmt.Sprintf(" (group %d/%d)", m.current.Group, m.current.Groups)
	}
	return m.styles.Title.Render(m.label) + "\n" +
		m.bar.ViewAs(m.percent()) + " " + m.styles.Label.Render(status) + "\n"
}

// RunWithProgress runs fn while drawing a progress bar on out. Quitting the
// display cancels the analysis; the partial report is returned together
// with ErrInterrupted.
func RunWithProgress(ctx context.Context, out io.Writer, label string, total int, fn AnalyzeFunc, opts ...tea.ProgramOption) (analysis.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(newProgressModel(label, total), opts...)

	results := make(chan doneMsg, 1)
	go func() {
		report, err := fn(ctx, func(pr analysis.Progress) {
			p.Send(progressMsg(pr))
		})
		res := doneMsg{report: report, err: err}
		results <- res
		p.Send(res)
	}()

	final, runErr := p.Run()

	interrupted := errors.Is(runErr, tea.ErrInterrupted)
	if m, ok := final.(progressModel); ok && m.cancelled {
		interrupted = true
	}
	if interrupted || runErr != nil {
		cancel()
	}

	res := <-results
	if interrupted {
		return res.report, ErrInterrupted
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return res.report, fmt.Errorf("progress display failed: %w", runErr)
	}
	return res.report, res.err
}
