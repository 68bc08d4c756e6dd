package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/orest-d/liquer/internal/bindings"
	"github.com/orest-d/liquer/internal/config"
	"github.com/orest-d/liquer/internal/poller"
	"github.com/orest-d/liquer/internal/query"
)

const previewTimeout = 30 * time.Second

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startCmd()}
	if cmd := m.nextSnapshotCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// startCmd opens the initial query and fetches the command list.
func (m Model) startCmd() tea.Cmd {
	nav := m.nav
	initial := strings.TrimPrefix(strings.TrimSpace(m.cfg.InitialQuery), "#")
	if nav == nil {
		return nil
	}
	return func() tea.Msg {
		if initial == "" {
			nav.Load("")
		} else {
			nav.SubmitQuery(initial)
		}
		nav.LoadCommands()
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.ready = true
		m.applyLayout()
	case snapshotMsg:
		if cmd := m.applySnapshot(typed.view); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if cmd := m.nextSnapshotCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case previewMsg:
		m.handlePreview(typed)
	case clipboardMsg:
		if typed.err != nil {
			m.setStatusMessage(statusMsg{text: fmt.Sprintf("Copy failed: %v", typed.err), level: statusError})
		} else {
			m.setStatusMessage(statusMsg{text: "Copied " + typed.text, level: statusSuccess})
		}
	case statusMsg:
		m.setStatusMessage(typed)
	case spinner.TickMsg:
		if m.spinning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(typed)
			cmds = append(cmds, cmd)
		}
	case tea.KeyMsg:
		if cmd := m.handleKey(typed); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case tea.MouseMsg:
		if cmd := m.forwardToContent(typed); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// applySnapshot replaces the displayed view and schedules the follow-up
// work it implies: preview fetches and the loading spinner.
func (m *Model) applySnapshot(v poller.View) tea.Cmd {
	prev := m.view
	m.view = v
	var cmds []tea.Cmd

	if v.Message != "" && (v.Message != prev.Message || v.Status != prev.Status) {
		level := statusInfo
		if v.Status == poller.StatusError {
			level = statusError
		}
		m.setStatusMessage(statusMsg{text: v.Message, level: level})
	}

	if v.State != nil && v.State != prev.State {
		key := v.QueryBasis
		if before, ok := m.states[key]; ok && before != nil {
			m.diff = renderStateDiff(before, v.State)
		} else {
			m.diff = ""
		}
		m.states[key] = v.State
	}

	if v.ContentPath != prev.ContentPath || v.Token != prev.Token {
		m.preview = preview{}
		if v.ContentPath != "" && v.Mode == poller.ModeIframe {
			if cmd := m.fetchPreviewCmd(v.ContentPath); cmd != nil {
				m.preview = preview{path: v.ContentPath, loading: true}
				cmds = append(cmds, cmd)
			}
		}
	}

	busy := !v.Phase.Done() && v.Phase != poller.PhaseIdle
	if busy && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	} else if !busy {
		m.spinning = false
	}

	if m.overlay == overlayCommands && len(v.Commands) > 0 && len(prev.Commands) == 0 {
		m.openList(overlayCommands, fmt.Sprintf("Commands (%d)", len(v.Commands)), commandItems(v.Commands))
	}

	m.refreshContent()
	return tea.Batch(cmds...)
}

func (m *Model) fetchPreviewCmd(path string) tea.Cmd {
	fetch := m.cfg.Fetch
	if fetch == nil {
		return nil
	}
	done := m.done
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), previewTimeout)
		defer cancel()
		go func() {
			select {
			case <-done:
				cancel()
			case <-ctx.Done():
			}
		}()
		payload, err := fetch(ctx, path)
		return previewMsg{path: path, payload: payload, err: err}
	}
}

func (m *Model) handlePreview(msg previewMsg) {
	if msg.path != m.view.ContentPath {
		return
	}
	m.preview = preview{path: msg.path}
	if msg.err != nil {
		m.preview.err = msg.err
		m.logger.Debug("preview failed", zap.String("path", msg.path), zap.Error(msg.err))
	} else {
		m.preview.body = renderPayload(msg.payload, m.renderOptions())
	}
	m.refreshContent()
}

func canonicalShortcutKey(msg tea.KeyMsg) string {
	key := msg.String()
	if key == "" {
		return ""
	}
	return bindings.NormalizeKeyString(key)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.overlay {
	case overlayPrompt:
		return m.handlePromptKey(msg)
	case overlayHistory, overlayCommands, overlayMenu:
		return m.handleListKey(msg)
	}

	key := canonicalShortcutKey(msg)
	if m.hasPendingChord {
		prefix := m.pendingChord
		m.pendingChord = ""
		m.hasPendingChord = false
		if binding, ok := m.keys.ResolveChord(prefix, key); ok {
			return m.runAction(binding.Action)
		}
	} else if key != "" && m.keys.HasChordPrefix(key) {
		m.pendingChord = key
		m.hasPendingChord = true
		return nil
	}

	if binding, ok := m.keys.MatchSingle(key); ok {
		if m.overlay == overlayHelp {
			switch binding.Action {
			case bindings.ActionToggleHelp, bindings.ActionCancel, bindings.ActionQuit:
			default:
				return nil
			}
		}
		return m.runAction(binding.Action)
	}
	if m.overlay == overlayHelp {
		return nil
	}
	return m.forwardToContent(msg)
}

func (m *Model) forwardToContent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == focusLog {
		m.logView, cmd = m.logView.Update(msg)
		return cmd
	}
	if m.tabular {
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	m.content, cmd = m.content.Update(msg)
	return cmd
}

func (m *Model) runAction(action bindings.ActionID) tea.Cmd {
	if m.nav == nil {
		switch action {
		case bindings.ActionQuit, bindings.ActionToggleHelp, bindings.ActionCancel:
		default:
			return nil
		}
	}
	q := m.currentQuery()
	switch action {
	case bindings.ActionSubmit:
		m.submit(q)
	case bindings.ActionGotoPrompt:
		m.openPrompt(promptGoto, q)
	case bindings.ActionGotoRelative:
		m.openPrompt(promptGotoRel, "")
	case bindings.ActionReload:
		m.nav.Load(q)
	case bindings.ActionRefreshMetadata:
		m.nav.RefreshMetadata()
	case bindings.ActionInspect:
		m.nav.InspectQuery(q)
	case bindings.ActionView:
		m.nav.ViewQuery(q)
	case bindings.ActionRemove:
		if q == "" {
			return statusCmd("Nothing to remove", statusWarn)
		}
		m.nav.RemoveQuery(q)
	case bindings.ActionQueriesStatus:
		m.nav.QueriesStatusMode()
	case bindings.ActionCommands:
		return m.openCommands()
	case bindings.ActionHistory:
		return m.openHistory()
	case bindings.ActionMenu:
		return m.openMenu()
	case bindings.ActionHome:
		m.nav.Load("")
	case bindings.ActionCleanCache:
		m.nav.CleanCache()
	case bindings.ActionCopyLink:
		return m.copyLinkCmd()
	case bindings.ActionUp:
		if q == "" {
			return nil
		}
		parent, _ := query.Parent(q)
		m.submit(parent)
	case bindings.ActionNextPane:
		if m.focus == focusContent && m.settings.Layout.LogPlacement != config.LayoutLogHidden {
			m.focus = focusLog
		} else {
			m.focus = focusContent
		}
		m.applyLayout()
	case bindings.ActionToggleHelp:
		if m.overlay == overlayHelp {
			m.overlay = overlayNone
		} else {
			m.overlay = overlayHelp
		}
	case bindings.ActionCancel:
		m.closeOverlay()
	case bindings.ActionQuit:
		return m.quit()
	}
	return nil
}

func (m *Model) submit(q string) {
	q = strings.Trim(strings.TrimSpace(q), "/")
	if q == "" {
		m.nav.Load("")
		return
	}
	m.nav.SubmitQuery(q)
}

func (m *Model) quit() tea.Cmd {
	m.stop()
	return tea.Quit
}

func (m *Model) openPrompt(kind promptKind, value string) {
	m.overlay = overlayPrompt
	m.promptKind = kind
	if kind == promptGotoRel {
		m.prompt.Prompt = "rel: "
	} else {
		m.prompt.Prompt = ": "
	}
	var suggestions []string
	if kind == promptGoto && m.cfg.History != nil {
		suggestions = m.cfg.History.Queries()
	}
	m.prompt.ShowSuggestions = len(suggestions) > 0
	m.prompt.SetSuggestions(suggestions)
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.prompt.Focus()
	m.applyLayout()
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeOverlay()
		m.applyLayout()
		return nil
	case tea.KeyCtrlC:
		return m.quit()
	case tea.KeyEnter:
		value := strings.TrimSpace(m.prompt.Value())
		kind := m.promptKind
		m.closeOverlay()
		m.applyLayout()
		if kind == promptGotoRel {
			if value == "" {
				return nil
			}
			m.nav.GotoRel(value)
			return nil
		}
		if value == "" {
			m.nav.Load("")
			return nil
		}
		m.nav.Goto(strings.TrimPrefix(value, "#"))
		return nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

// copyTarget picks the most specific link of the current result.
func (m *Model) copyTarget() string {
	switch {
	case m.view.ContentPath != "":
		return m.absoluteLink(m.view.ContentPath)
	case m.view.Mode == poller.ModeIframe && m.view.ExternalLink != "":
		return m.view.ExternalLink
	case m.view.Query != "":
		return m.absoluteLink(m.view.Query)
	}
	return ""
}

func (m *Model) absoluteLink(q string) string {
	if m.cfg.Link != nil {
		return m.cfg.Link(q)
	}
	return q
}

func (m *Model) copyLinkCmd() tea.Cmd {
	link := m.copyTarget()
	if link == "" {
		return statusCmd("Nothing to copy", statusWarn)
	}
	copyFn := m.copy
	return func() tea.Msg {
		return clipboardMsg{text: link, err: copyFn(link)}
	}
}
