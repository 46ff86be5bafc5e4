package ux

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"aipm/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// shortIDLen is the run ID prefix shown in listings; the store accepts it back.
const shortIDLen = 8

// RenderHistory renders run summaries as a table, newest first.
func RenderHistory(runs []store.RunSummary, styles Styles) string {
	if len(runs) == 0 {
		return "No runs recorded yet.\n"
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(r.Document),
			r.Catalog,
			fmt.Sprintf("%d/%d", r.Passed, r.Total),
			r.Duration.Round(100 * time.Millisecond).String(),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers("ID", "WHEN", "DOCUMENT", "CATALOG", "PASSED", "TOOK").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		})

	return t.String() + "\n"
}

// RenderRunHeader describes a stored run above its report.
func RenderRunHeader(run *store.Run) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:      %s\n", run.ID)
	fmt.Fprintf(&sb, "Document: %s\n", run.Document)
	if run.Catalog != "" {
		fmt.Fprintf(&sb, "Catalog:  %s\n", run.Catalog)
	}
	if run.Model != "" {
		fmt.Fprintf(&sb, "Model:    %s\n", run.Model)
	}
	fmt.Fprintf(&sb, "When:     %s\n", run.CreatedAt.Local().Format(time.RFC1123))
	sb.WriteString("\n")
	return sb.String()
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
