package ux

import (
	"fmt"
	"strconv"
	"strings"

	"aipm/internal/rules"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// instructionWidth wraps long instructions in the catalog table.
const instructionWidth = 72

// RenderCatalog renders a catalog's rules as a numbered table.
func RenderCatalog(cat *rules.Catalog, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(cat.Name) + "\n")
	if cat.Description != "" {
		sb.WriteString(styles.Label.Render(cat.Description) + "\n")
	}
	sb.WriteString("\n")

	if len(cat.Rules) == 0 {
		sb.WriteString("No rules defined.\n")
		return sb.String()
	}

	rows := make([][]string, 0, len(cat.Rules))
	for i, r := range cat.Rules {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Name(), r.Instruction()})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers("#", "RULE", "INSTRUCTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			if col == 2 {
				return styles.Cell.Width(instructionWidth)
			}
			return styles.Cell
		})

	sb.WriteString(t.String() + "\n")
	fmt.Fprintf(&sb, "%d rules\n", len(cat.Rules))
	return sb.String()
}

// RenderCatalogNames lists catalog names, marking the default.
func RenderCatalogNames(names []string, def string) string {
	var sb strings.Builder
	for _, name := range names {
		marker := "  "
		if name == def {
			marker = "* "
		}
		sb.WriteString(marker + name + "\n")
	}
	return sb.String()
}
