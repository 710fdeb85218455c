package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

// maxNameWidth bounds free-text columns in terminal cells.
const maxNameWidth = 28

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// clip shortens s to maxNameWidth terminal cells, counting wide runes twice.
func clip(s string) string {
	return runewidth.Truncate(s, maxNameWidth, "…")
}
