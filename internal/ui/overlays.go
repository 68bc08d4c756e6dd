package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/orest-d/liquer/internal/history"
	"github.com/orest-d/liquer/internal/liquer"
)

type linkKind int

const (
	linkAbsolute linkKind = iota
	linkRelative
	linkHistory
)

type linkItem struct {
	title  string
	detail string
	link   string
	kind   linkKind
	id     string
}

func (i linkItem) Title() string       { return i.title }
func (i linkItem) Description() string { return i.detail }
func (i linkItem) FilterValue() string { return i.title + " " + i.link }

func historyItems(entries []history.Entry) []list.Item {
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		title := e.Query
		if title == "" {
			title = "/"
		}
		detail := e.VisitedAt.Local().Format("2006-01-02 15:04:05")
		if e.Status != "" {
			detail += "  " + e.Status
		}
		if e.Mode != "" {
			detail += "  " + e.Mode
		}
		if e.Duration > 0 {
			detail += "  " + e.Duration.Round(time.Millisecond).String()
		}
		items = append(items, linkItem{
			title:  title,
			detail: detail,
			link:   e.Query,
			kind:   linkHistory,
			id:     e.ID,
		})
	}
	return items
}

func commandItems(cmds []liquer.Command) []list.Item {
	items := make([]list.Item, 0, len(cmds))
	for _, c := range cmds {
		title := c.Name
		if c.NS != "" && c.NS != "root" {
			title = c.NS + "-" + c.Name
		}
		if c.Label != "" && c.Label != c.Name {
			title += " (" + c.Label + ")"
		}
		detail := firstLine(c.Doc)
		link := c.ExampleLink
		if link == "" {
			link = c.Name
		}
		items = append(items, linkItem{title: title, detail: detail, link: link, kind: linkAbsolute})
	}
	return items
}

// menuItems flattens nested menus into "Parent / Child" entries. Items
// without a link only contribute their title to the path.
func menuItems(groups ...[]liquer.MenuItem) []list.Item {
	var items []list.Item
	var walk func(prefix string, in []liquer.MenuItem)
	walk = func(prefix string, in []liquer.MenuItem) {
		for _, it := range in {
			title := it.Title
			if prefix != "" {
				title = prefix + " / " + it.Title
			}
			if it.Link != "" {
				items = append(items, linkItem{title: title, detail: it.Link, link: it.Link, kind: linkRelative})
			}
			walk(title, it.Items)
		}
	}
	for _, g := range groups {
		walk("", g)
	}
	return items
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func (m *Model) openList(kind overlayKind, title string, items []list.Item) {
	m.overlay = kind
	m.list.Title = title
	m.list.ResetFilter()
	m.list.SetItems(items)
	m.list.Select(0)
	m.layoutList()
}

func (m *Model) openHistory() tea.Cmd {
	if m.cfg.History == nil || !m.settings.HistoryVisible() {
		return statusCmd("History is disabled", statusWarn)
	}
	entries := m.cfg.History.Entries()
	if len(entries) == 0 {
		return statusCmd("No history yet", statusInfo)
	}
	m.openList(overlayHistory, "History", historyItems(entries))
	return nil
}

func (m *Model) openCommands() tea.Cmd {
	if len(m.view.Commands) == 0 {
		m.nav.LoadCommands()
		m.openList(overlayCommands, "Commands (loading)", nil)
		return nil
	}
	m.openList(overlayCommands, fmt.Sprintf("Commands (%d)", len(m.view.Commands)), commandItems(m.view.Commands))
	return nil
}

func (m *Model) openMenu() tea.Cmd {
	items := menuItems(m.view.Menu, m.view.ContextMenu)
	if len(items) == 0 {
		return statusCmd("Menu is empty", statusInfo)
	}
	m.openList(overlayMenu, "Menu", items)
	return nil
}

func (m *Model) closeOverlay() {
	m.overlay = overlayNone
	m.prompt.Blur()
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	filtering := m.list.FilterState() == list.Filtering
	switch msg.String() {
	case "esc":
		if !filtering {
			m.closeOverlay()
			return nil
		}
	case "enter":
		if !filtering {
			return m.selectListItem()
		}
	case "d", "delete":
		if !filtering && m.overlay == overlayHistory {
			return m.deleteHistoryItem()
		}
	case "ctrl+c":
		return m.quit()
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) selectListItem() tea.Cmd {
	item, ok := m.list.SelectedItem().(linkItem)
	m.closeOverlay()
	if !ok {
		return nil
	}
	switch item.kind {
	case linkHistory:
		m.submit(item.link)
	case linkRelative:
		m.nav.GotoRel(item.link)
	default:
		m.nav.Goto(item.link)
	}
	return nil
}

func (m *Model) deleteHistoryItem() tea.Cmd {
	item, ok := m.list.SelectedItem().(linkItem)
	if !ok || m.cfg.History == nil {
		return nil
	}
	removed, err := m.cfg.History.Delete(item.id)
	if err != nil {
		return statusCmd(fmt.Sprintf("History delete failed: %v", err), statusError)
	}
	if !removed {
		return nil
	}
	m.list.RemoveItem(m.list.Index())
	if len(m.list.Items()) == 0 {
		m.closeOverlay()
	}
	return statusCmd("History entry deleted", statusSuccess)
}

func statusCmd(text string, level statusLevel) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, level: level}
	}
}
