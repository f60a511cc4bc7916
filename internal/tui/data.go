package tui

import (
	"context"
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wrap"

	"github.com/pranshuparmar/whoisit/internal/output"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

const refreshTimeout = 5 * time.Second

func (m MainModel) refreshConnections() tea.Cmd {
	lister := m.lister
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		conns, err := lister.ListConnections(ctx)
		if err != nil {
			return err
		}
		return conns
	}
}

// sortKey columns, in table order.
var sortKeys = []string{"user", "pid", "command", "local", "remote", "state"}

func baseColumns() []table.Column {
	return []table.Column{
		{Title: "User", Width: 12},
		{Title: "PID", Width: 8},
		{Title: "Command", Width: 16},
		{Title: "Local", Width: 24},
		{Title: "Remote", Width: 24},
		{Title: "State", Width: 12},
	}
}

func (m *MainModel) getColumns() []table.Column {
	cols := baseColumns()
	for i, key := range sortKeys {
		if m.sortCol != key {
			continue
		}
		if m.sortDesc {
			cols[i].Title += " ↓"
		} else {
			cols[i].Title += " ↑"
		}
	}
	return cols
}

// setSort switches to key, or flips the direction when key is already active.
func (m *MainModel) setSort(key string) {
	if m.sortCol == key {
		m.sortDesc = !m.sortDesc
	} else {
		m.sortCol = key
		m.sortDesc = false
	}
	cols := m.table.Columns()
	newCols := m.getColumns()
	for i := range cols {
		if i < len(newCols) {
			newCols[i].Width = cols[i].Width
		}
	}
	m.table.SetColumns(newCols)
	m.sortConnections()
	m.filterConnections()
}

func (m *MainModel) sortConnections() {
	less := connectionLess(m.sortCol)
	sort.SliceStable(m.conns, func(i, j int) bool {
		if m.sortDesc {
			return less(m.conns[j], m.conns[i])
		}
		return less(m.conns[i], m.conns[j])
	})
}

func connectionLess(col string) func(a, b model.Connection) bool {
	switch col {
	case "user":
		return func(a, b model.Connection) bool { return strings.ToLower(a.User) < strings.ToLower(b.User) }
	case "pid":
		return func(a, b model.Connection) bool { return a.PID < b.PID }
	case "command":
		return func(a, b model.Connection) bool { return strings.ToLower(a.Command) < strings.ToLower(b.Command) }
	case "remote":
		return func(a, b model.Connection) bool { return addrLess(a.Remote, b.Remote) }
	case "state":
		return func(a, b model.Connection) bool { return a.State < b.State }
	}
	return func(a, b model.Connection) bool { return addrLess(a.Local, b.Local) }
}

// addrLess orders "ip:port" strings numerically when both parse, and as text
// otherwise.
func addrLess(a, b string) bool {
	pa, errA := netip.ParseAddrPort(a)
	pb, errB := netip.ParseAddrPort(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return pa.Compare(pb) < 0
}

func matchesFilter(c model.Connection, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.User), filter) ||
		strings.Contains(strconv.Itoa(c.PID), filter) ||
		strings.Contains(strings.ToLower(c.Command), filter) ||
		strings.Contains(strings.ToLower(c.Local), filter) ||
		strings.Contains(strings.ToLower(c.Remote), filter) ||
		strings.Contains(strings.ToLower(c.State), filter)
}

func (m *MainModel) filterConnections() {
	filter := strings.ToLower(m.input.Value())
	var rows []table.Row

	m.filtered = nil
	for _, c := range m.conns {
		if !m.showAll && c.State != "ESTABLISHED" {
			continue
		}
		if !matchesFilter(c, filter) {
			continue
		}
		m.filtered = append(m.filtered, c)

		pid := ""
		if c.PID > 0 {
			pid = strconv.Itoa(c.PID)
		}
		rows = append(rows, table.Row{c.User, pid, c.Command, c.Local, c.Remote, c.State})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
	m.updateDetailViewport()
}

func (m MainModel) selected() (model.Connection, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.filtered) {
		return model.Connection{}, false
	}
	return m.filtered[idx], true
}

// identReply is the answer the responder would give a peer asking about c.
// The query names the local port first, then the peer's port.
func identReply(c model.Connection) (model.Response, bool) {
	local, err := netip.ParseAddrPort(c.Local)
	if err != nil {
		return model.Response{}, false
	}
	remote, err := netip.ParseAddrPort(c.Remote)
	if err != nil || remote.Port() == 0 {
		return model.Response{}, false
	}
	query := fmt.Sprintf("%d, %d", local.Port(), remote.Port())
	if c.User == "" {
		return model.ErrorResponse(query, model.ErrorNoUser), true
	}
	return model.UserIDResponse(query, c.User), true
}

func (m *MainModel) updateDetailViewport() {
	c, ok := m.selected()
	if !ok {
		m.viewport.SetContent(dimStyle.Render("No connection selected."))
		return
	}

	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			value = dimStyle.Render("-")
		}
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(label), value)
	}
	field("User:", c.User)
	if c.PID > 0 {
		field("Process:", fmt.Sprintf("%s (pid %d)", c.Command, c.PID))
	}
	field("Local:", c.Local)
	field("Remote:", c.Remote)
	field("State:", c.State)
	fmt.Fprintf(&b, "\n%s\n\n", c.Explanation())

	if resp, ok := identReply(c); ok {
		fmt.Fprintf(&b, "%s\n", labelStyle.Render("Ident reply:"))
		output.RenderResponse(&b, resp, true)
	}

	content := b.String()
	if m.viewport.Width > 0 {
		content = wrap.String(content, m.viewport.Width)
	}
	m.viewport.SetContent(content)
}
