package tui

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#585858")) // Dark Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")). // White
			Background(lipgloss.Color("#7D56F4")). // Purple
			Padding(0, 1)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
				Bold(true).
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("#585858")). // Dark Gray
				Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#585858")). // Dark Gray
			Padding(0, 1)

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#22aa22")). // Green
			Padding(0, 1).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5f5f")). // Soft red
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#af87ff")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
)

// Lister enumerates the host's TCP sockets. lookup.Lsof and lookup.ProcNet
// both satisfy it.
type Lister interface {
	ListConnections(ctx context.Context) ([]model.Connection, error)
}

type focusState int

const (
	focusMain focusState = iota
	focusSide
)

type MainModel struct {
	lister   Lister
	table    table.Model
	input    textinput.Model
	viewport viewport.Model

	conns    []model.Connection
	filtered []model.Connection
	focus    focusState

	// showAll includes listening and closing sockets; by default only
	// established connections are listed, the ones an ident query can name.
	showAll bool

	sortCol  string
	sortDesc bool

	statusMsg string
	width     int
	height    int
	quitting  bool
	version   string
}

func InitialModel(lister Lister, version string) MainModel {
	t := table.New(
		table.WithColumns(baseColumns()),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	t.SetStyles(tableStyles(lipgloss.Color("#5f5fd7")))

	ti := textinput.New()
	ti.Placeholder = "Search user, command, address, state..."
	ti.CharLimit = 156
	ti.Width = 50
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.Blur()

	vp := viewport.New(0, 0)

	return MainModel{
		lister:   lister,
		table:    t,
		input:    ti,
		viewport: vp,
		focus:    focusMain,
		sortCol:  "local",
		version:  version,
	}
}

func tableStyles(border lipgloss.Color) table.Styles {
	s := table.DefaultStyles()
	s.Header = tableHeaderStyle.BorderForeground(border)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffaf")). // Light Yellow
		Background(lipgloss.Color("#5f00d7")). // Purple
		Bold(false)
	return s
}

// Start runs the connection browser until the user quits.
func Start(lister Lister, version string) error {
	if os.Getenv("COLORTERM") == "" {
		os.Setenv("COLORTERM", "truecolor") //nolint:errcheck
	}

	p := tea.NewProgram(InitialModel(lister, version), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running tui: %w", err)
	}
	return nil
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.refreshConnections(),
		waitTick(),
	)
}
