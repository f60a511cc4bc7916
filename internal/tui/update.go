package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

type tickMsg time.Time

func waitTick() tea.Cmd {
	return tea.Tick(10*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// header rows above the table: title, blank, status, search input.
const tableTop = 7

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		var cmd tea.Cmd
		if !m.quitting && !m.input.Focused() {
			cmd = m.refreshConnections()
		}
		return m, tea.Batch(cmd, waitTick())

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		m.statusMsg = ""
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

		if m.input.Focused() {
			if msg.String() == "enter" || msg.String() == "esc" {
				m.input.Blur()
				return m, nil
			}
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			m.table.SetCursor(0)
			m.filterConnections()
			return m, inputCmd
		}

		switch msg.String() {
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "/":
			m.input.Focus()
			return m, textinput.Blink
		case "r":
			return m, m.refreshConnections()
		case "a":
			m.showAll = !m.showAll
			m.filterConnections()
			return m, nil
		case "tab":
			if m.focus == focusMain {
				m.focus = focusSide
				m.table.Blur()
			} else {
				m.focus = focusMain
				m.table.Focus()
			}
			return m, nil
		case "u", "p", "c", "l", "o", "s":
			m.setSort(map[string]string{
				"u": "user", "p": "pid", "c": "command",
				"l": "local", "o": "remote", "s": "state",
			}[msg.String()])
			return m, nil
		}

		var cmd tea.Cmd
		if m.focus == focusMain {
			prev := m.table.Cursor()
			m.table, cmd = m.table.Update(msg)
			if m.table.Cursor() != prev {
				m.viewport.GotoTop()
				m.updateDetailViewport()
			}
		} else {
			m.viewport, cmd = m.viewport.Update(msg)
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.updateDetailViewport()

	case []model.Connection:
		prev, hadSelection := m.selected()
		m.conns = msg
		m.sortConnections()
		m.filterConnections()
		if hadSelection {
			for i, c := range m.filtered {
				if c == prev {
					m.table.SetCursor(i)
					break
				}
			}
		}
		m.updateDetailViewport()

	case error:
		m.statusMsg = fmt.Sprintf("Error: %v", msg)
	}

	return m, nil
}

func (m *MainModel) resize() {
	availableWidth := max(m.width-6, 0)

	listHeight := max(m.height-11, 5)
	listPaneWidth := max(int(float64(availableWidth)*0.65), 10)
	tableWidth := max(listPaneWidth-4, 10)

	// User(12)+PID(8)+Command(16)+State(12) plus cell padding
	fixed := 48 + 12
	addrWidth := max((tableWidth-fixed)/2, 10)

	cols := m.getColumns()
	cols[3].Width = addrWidth
	cols[4].Width = addrWidth
	m.table.SetColumns(cols)
	m.table.SetWidth(tableWidth)
	m.table.SetHeight(listHeight)

	m.viewport.Width = max(availableWidth-listPaneWidth-4, 10)
	m.viewport.Height = max(listHeight-2, 0)
}

func (m MainModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	contentX := msg.X - 2
	listPaneWidth := max(int(float64(max(m.width-6, 0))*0.65), 10)
	inList := contentX >= 0 && contentX < listPaneWidth

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		key := tea.KeyMsg{Type: tea.KeyDown}
		if msg.Button == tea.MouseButtonWheelUp {
			key = tea.KeyMsg{Type: tea.KeyUp}
		}
		if inList {
			prev := m.table.Cursor()
			m.table, _ = m.table.Update(key)
			if m.table.Cursor() != prev {
				m.updateDetailViewport()
			}
		} else {
			m.viewport, _ = m.viewport.Update(key)
		}
		return m, nil

	case tea.MouseButtonLeft:
		if msg.Y == tableTop && inList {
			m.handleHeaderClick(contentX)
		}
		if inList {
			m.focus = focusMain
			m.table.Focus()
		} else if contentX >= listPaneWidth {
			m.focus = focusSide
			m.table.Blur()
		}
	}
	return m, nil
}
