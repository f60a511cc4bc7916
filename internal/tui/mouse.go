package tui

import "github.com/charmbracelet/bubbles/table"

// returns the column index at x cells, or -1 if not found.
func getColumnAtX(x int, cols []table.Column) int {
	currentX := 0
	for i, col := range cols {
		colWidth := col.Width + 2
		if x >= currentX && x < currentX+colWidth {
			return i
		}
		currentX += colWidth
	}
	return -1
}

func (m *MainModel) handleHeaderClick(x int) {
	idx := getColumnAtX(x, m.table.Columns())
	if idx < 0 || idx >= len(sortKeys) {
		return
	}
	m.setSort(sortKeys[idx])
}
