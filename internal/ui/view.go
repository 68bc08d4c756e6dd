package ui

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/orest-d/liquer/internal/bindings"
	"github.com/orest-d/liquer/internal/config"
	"github.com/orest-d/liquer/internal/liquer"
	"github.com/orest-d/liquer/internal/poller"
	"github.com/orest-d/liquer/internal/render"
)

const (
	minLogWidth  = 24
	maxCellWidth = 40
)

type paneLayout struct {
	mainWidth  int
	mainHeight int
	logWidth   int
	logHeight  int
	logRight   bool
}

func (m *Model) applyLayout() {
	if !m.ready {
		return
	}
	height := m.height - 2
	if m.overlay == overlayPrompt {
		height--
	}
	height = maxInt(height, 3)
	lay := paneLayout{mainWidth: m.width, mainHeight: height}

	switch m.settings.Layout.LogPlacement {
	case config.LayoutLogHidden:
	case config.LayoutLogRight:
		w := maxInt(int(float64(m.width)*m.settings.Layout.SidebarWidth), minLogWidth)
		if w < m.width-minLogWidth {
			lay.logRight = true
			lay.logWidth = w
			lay.logHeight = height
			lay.mainWidth = m.width - w
		}
	default:
		h := minInt(m.settings.LogTail+3, int(float64(height)*m.settings.Layout.LogSplit))
		if h >= 3 && height-h >= 3 {
			lay.logWidth = m.width
			lay.logHeight = h
			lay.mainHeight = height - h
		}
	}
	m.layout = lay

	m.content.Width = m.contentWidth()
	m.content.Height = m.contentHeight()
	m.table.SetWidth(m.contentWidth())
	m.table.SetHeight(m.contentHeight())
	m.logView.Width = maxInt(lay.logWidth-2, 0)
	m.logView.Height = maxInt(lay.logHeight-3, 0)
	m.prompt.Width = maxInt(m.width-len(m.prompt.Prompt)-1, 10)
	m.layoutList()
	m.refreshContent()
}

func (m *Model) layoutList() {
	m.list.SetSize(maxInt(m.width-2, 0), maxInt(m.height-5, 0))
}

func (m *Model) contentWidth() int {
	return maxInt(m.layout.mainWidth-2, 0)
}

func (m *Model) contentHeight() int {
	return maxInt(m.layout.mainHeight-3, 0)
}

// refreshContent rebuilds the main and log panes from the current view.
func (m *Model) refreshContent() {
	v := m.view
	m.tabular = false

	switch {
	case v.Status == poller.StatusError && v.HTML != "":
		m.setContent(m.renderHTML(v.HTML))
	case v.Mode == poller.ModeQueriesStatus:
		headers := []string{"Query", "Status", "Message", "Updated"}
		rows := make([][]string, 0, len(v.QueriesStatus))
		for _, qs := range v.QueriesStatus {
			rows = append(rows, []string{qs.Query, string(qs.Status), qs.Message, qs.Updated})
		}
		m.setTable(headers, rows)
	case v.Mode == poller.ModeDataframe && v.DataFrame != nil:
		m.setTable(v.DataFrame.Headers(), v.DataFrame.Rows())
	case v.Mode == poller.ModeInspect:
		m.setContent(m.inspectText())
	case v.Mode == poller.ModeIframe:
		m.setContent(m.iframeText())
	case v.Mode == poller.ModeImage:
		m.setContent(m.linkCard("Image", v.ContentPath))
	case v.Data != nil:
		m.setContent(render.Value(v.Data, m.renderOptions()))
	case v.HTML != "":
		m.setContent(m.renderHTML(v.HTML))
	case v.State != nil:
		m.setContent(m.stateSummary(v.State))
	case v.Status == poller.StatusError:
		m.setContent(m.theme.Error.Render(strings.TrimSpace(v.Message + "\n" + v.Detail)))
	default:
		m.setContent(m.theme.Muted.Render("Press : to go to a query, ? for help."))
	}

	var lines []string
	for _, entry := range v.MetadataLogTail(m.settings.LogTail) {
		kind := m.theme.LogKind.Render(fmt.Sprintf("%-8s", entry.Kind))
		lines = append(lines, kind+" "+m.theme.LogStyle(entry.Kind).Render(entry.Message))
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
	m.logView.GotoBottom()
}

func (m *Model) setContent(s string) {
	if v := m.view; v.Waiting() {
		s = m.theme.StatusLoading.Render(fmt.Sprintf("Waiting for %s: %s", v.Query, v.Metadata.Status)) + "\n\n" + s
	}
	m.content.SetContent(s)
}

func (m *Model) setTable(headers []string, rows [][]string) {
	m.tabular = true
	widths := render.ColumnWidths(headers, rows, maxCellWidth)
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: maxInt(widths[i], 1)}
	}
	out := make([]table.Row, len(rows))
	for i, row := range rows {
		cells := make(table.Row, len(cols))
		for j := range cells {
			if j < len(row) {
				cells[j] = row[j]
			}
		}
		out[i] = cells
	}
	// Rows must never be wider than the columns while either is replaced.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(out)
}

func (m *Model) renderHTML(html string) string {
	out, err := render.HTML(html, m.renderOptions())
	if err != nil {
		return html
	}
	return out
}

func (m *Model) iframeText() string {
	v := m.view
	if v.ContentPath == "" && v.ExternalLink != "" {
		return m.linkCard("External link", v.ExternalLink)
	}
	switch {
	case m.preview.loading:
		return m.theme.Muted.Render("Loading " + v.ContentPath + "...")
	case m.preview.err != nil:
		return m.linkCard("Result", v.ContentPath) + "\n\n" + m.theme.Error.Render(m.preview.err.Error())
	case m.preview.body != "":
		return m.preview.body
	}
	return m.linkCard("Result", v.ContentPath)
}

func (m *Model) linkCard(label, link string) string {
	if link == "" {
		return m.theme.Muted.Render("No content")
	}
	target := link
	if !strings.Contains(link, ":") {
		target = m.absoluteLink(link)
	}
	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render(label))
	b.WriteString("\n")
	b.WriteString(m.theme.Link.Render(target))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Help.Render("y copies the link"))
	return b.String()
}

func (m *Model) stateSummary(st *liquer.State) string {
	var b strings.Builder
	kv := func(k, v string) {
		if v == "" {
			return
		}
		b.WriteString(m.theme.HelpKey.Render(fmt.Sprintf("%-16s", k)))
		b.WriteString(m.theme.HeaderValue.Render(v))
		b.WriteString("\n")
	}
	kv("query", st.Query)
	kv("status", string(st.Status))
	kv("type", st.TypeIdentifier)
	kv("extension", st.Extension)
	kv("title", st.Title)
	kv("description", st.Description)
	kv("message", st.Message)
	return b.String()
}

func (m *Model) inspectText() string {
	v := m.view
	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render("Inspect " + v.Query))
	b.WriteString("\n")
	if v.Metadata != nil {
		b.WriteString(m.theme.StatusStyle(v.Metadata.Status).Render(string(v.Metadata.Status)))
		b.WriteString(fmt.Sprintf("  polls %d", v.Polls))
		if d := v.Duration(); d > 0 {
			b.WriteString("  " + d.Round(time.Millisecond).String())
		}
		b.WriteString("\n\n")
		for _, entry := range v.Metadata.Log {
			b.WriteString(m.theme.LogKind.Render(fmt.Sprintf("%-8s", entry.Kind)))
			b.WriteString(" ")
			b.WriteString(m.theme.LogStyle(entry.Kind).Render(entry.Message))
			b.WriteString("\n")
			if entry.Traceback != "" {
				b.WriteString(m.theme.Muted.Render(entry.Traceback))
				b.WriteString("\n")
			}
		}
	}
	if v.State != nil {
		b.WriteString("\n")
		b.WriteString(m.stateSummary(v.State))
		if len(v.State.Raw) > 0 {
			b.WriteString("\n")
			b.WriteString(render.JSON(v.State.Raw, m.renderOptions()))
		}
	}
	if m.diff != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.PaneTitle.Render("Changes since last load"))
		b.WriteString("\n")
		b.WriteString(render.Highlight(m.diff, "diff", m.renderOptions()))
	}
	return b.String()
}

// renderPayload renders fetched content by its media type.
func renderPayload(p *liquer.Payload, opts render.Options) string {
	if p == nil {
		return ""
	}
	ct := strings.ToLower(p.ContentType)
	switch {
	case strings.Contains(ct, "html"):
		out, err := render.HTML(string(p.Body), opts)
		if err != nil {
			return string(p.Body)
		}
		return out
	case strings.Contains(ct, "json"):
		return render.JSON(p.Body, opts)
	case strings.HasPrefix(ct, "text/"), ct == "":
		lang := strings.TrimPrefix(path.Ext(p.Path), ".")
		return render.Highlight(string(p.Body), lang, opts)
	}
	return fmt.Sprintf("%d bytes of %s\n%s", len(p.Body), p.ContentType, p.URL)
}

func renderStateDiff(before, after *liquer.State) string {
	return render.StateDiff(before, after)
}

func (m Model) View() string {
	if !m.ready {
		return "Initialising..."
	}
	parts := []string{m.renderHeader(), m.renderBody()}
	if m.overlay == overlayPrompt {
		parts = append(parts, m.prompt.View())
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	v := m.view
	sep := m.theme.HeaderSeparator.Render(" | ")
	segments := []string{m.theme.HeaderBrand.Render("liquer")}
	if m.cfg.Server != "" {
		segments = append(segments, m.theme.HeaderValue.Render(m.cfg.Server))
	}
	q := v.Query
	if q == "" {
		q = "/"
	}
	segments = append(segments, m.theme.HeaderQuery.Render(q))
	if v.Mode != poller.ModeNone {
		segments = append(segments, m.theme.HeaderValue.Render(string(v.Mode)))
	}
	line := strings.Join(segments, sep)
	if v.Metadata != nil {
		line += " " + m.theme.StatusStyle(v.Metadata.Status).Render(string(v.Metadata.Status))
	}
	return m.theme.Header.Width(m.width).MaxHeight(1).Render(line)
}

func (m Model) renderBody() string {
	switch m.overlay {
	case overlayHelp:
		return m.pane("Help", m.helpText(), m.width, m.height-2, true)
	case overlayHistory, overlayCommands, overlayMenu:
		return m.pane(m.list.Title, m.list.View(), m.width, m.height-2, true)
	}
	title := "Result"
	if m.view.Filename != "" {
		title = m.view.Filename
	}
	body := m.content.View()
	if m.tabular {
		body = m.table.View()
	}
	main := m.pane(title, body, m.layout.mainWidth, m.layout.mainHeight, m.focus == focusContent)
	if m.layout.logHeight == 0 {
		return main
	}
	log := m.pane("Log", m.logView.View(), m.layout.logWidth, m.layout.logHeight, m.focus == focusLog)
	if m.layout.logRight {
		return lipgloss.JoinHorizontal(lipgloss.Top, main, log)
	}
	return lipgloss.JoinVertical(lipgloss.Left, main, log)
}

func (m Model) pane(title, body string, width, height int, focused bool) string {
	style := m.theme.PaneBorder
	if focused {
		style = style.BorderForeground(m.theme.PaneBorderFocus)
	}
	inner := m.theme.PaneTitle.Render(title) + "\n" + body
	return style.
		Width(maxInt(width-2, 0)).
		Height(maxInt(height-2, 0)).
		MaxHeight(maxInt(height, 0)).
		Render(inner)
}

func (m Model) renderStatusBar() string {
	v := m.view
	indicator := string(v.Status)
	if indicator == "" {
		indicator = string(poller.StatusOK)
	}
	left := m.theme.IndicatorStyle(indicator).Render(indicator)
	if m.spinning {
		left = m.spinner.View() + " " + left
	}
	text := m.statusMessage.text
	style := m.theme.StatusBar
	switch m.statusMessage.level {
	case statusError:
		style = m.theme.Error
	case statusSuccess:
		style = m.theme.Success
	}
	if text != "" {
		left += " " + style.Render(text)
	}
	if v.Detail != "" && v.Status == poller.StatusError {
		left += " " + m.theme.Muted.Render(render.Truncate(v.Detail, 60))
	}
	right := m.theme.Help.Render("? help")
	if m.hasPendingChord {
		right = m.theme.HelpKey.Render(m.pendingChord + "…")
	}
	gap := maxInt(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return m.theme.StatusBar.MaxWidth(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) helpText() string {
	var b strings.Builder
	for _, action := range bindings.KnownActions() {
		var keys []string
		for _, binding := range m.keys.Bindings(action) {
			keys = append(keys, binding.Label())
		}
		if len(keys) == 0 {
			continue
		}
		b.WriteString(m.theme.HelpKey.Render(fmt.Sprintf("%-20s", strings.Join(keys, ", "))))
		b.WriteString(" ")
		b.WriteString(m.theme.Help.Render(bindings.Describe(action)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("In lists: enter opens, / filters, d deletes history, esc closes."))
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
