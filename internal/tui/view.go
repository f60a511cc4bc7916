package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m MainModel) View() string {
	if m.quitting {
		return ""
	}

	outerStyle := baseStyle.
		Width(m.width-2).
		Height(m.height-2).
		Padding(0, 1)

	status := "Mode: Navigation (Press / to search)"
	if m.input.Focused() {
		status = "Mode: Searching (Press Esc/Enter to stop)"
	}
	if m.statusMsg != "" {
		status = errorStyle.Render(m.statusMsg)
	}

	activeBorderColor := lipgloss.Color("#5f5fd7") // Purple/Blue
	dimBorderColor := lipgloss.Color("#585858")    // Dark Gray

	tableBorder, sideBorder := activeBorderColor, dimBorderColor
	sideHeaderColor := lipgloss.Color("#bcbcbc") // Light Gray
	if m.focus == focusSide {
		tableBorder, sideBorder = dimBorderColor, activeBorderColor
		sideHeaderColor = activeBorderColor
	}
	m.table.SetStyles(tableStyles(tableBorder))

	sideHeader := "Details"
	if !m.viewport.AtTop() && !m.viewport.AtBottom() {
		sideHeader += " ↕"
	} else if !m.viewport.AtTop() {
		sideHeader += " ↑"
	} else if !m.viewport.AtBottom() {
		sideHeader += " ↓"
	}

	sideContainer := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(sideBorder).
		PaddingLeft(2).
		Height(m.table.Height())

	sideHeaderStyle := tableHeaderStyle.
		Width(m.viewport.Width).
		Foreground(sideHeaderColor).
		BorderForeground(sideBorder)

	listPaneWidth := max(int(float64(max(m.width-6, 0))*0.65), 10)
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listPaneWidth).Render(m.table.View()),
		sideContainer.Render(
			lipgloss.JoinVertical(lipgloss.Left,
				sideHeaderStyle.Render(sideHeader),
				lipgloss.NewStyle().PaddingLeft(1).Render(m.viewport.View()),
			),
		),
	)

	scope := "ESTABLISHED"
	if m.showAll {
		scope = "ALL"
	}
	helpText := fmt.Sprintf("Total: %d [%s] | u/p/c/l/o/s: Sort | a: Toggle All | r: Refresh | Tab: Focus | Esc/q: Quit", len(m.filtered), scope)
	footerContent := helpText
	if m.version != "" {
		gap := m.width - 6 - lipgloss.Width(helpText) - lipgloss.Width(m.version)
		if gap > 0 {
			footerContent = helpText + strings.Repeat(" ", gap) + m.version
		}
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("whoisit"),
		modeStyle.Render("Connections"),
	)

	return outerStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			lipgloss.NewStyle().Height(1).Render(""),
			lipgloss.NewStyle().MarginBottom(1).PaddingLeft(1).Render(status),
			lipgloss.NewStyle().MarginBottom(1).PaddingLeft(1).Render(m.input.View()),
			mainContent,
			lipgloss.NewStyle().Height(1).Render(""),
			footerStyle.Width(m.width-4).Render(footerContent),
		),
	)
}
