package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/orest-d/liquer/internal/liquer"
	"github.com/orest-d/liquer/internal/poller"
)

// Navigator is the poller surface the model drives.
type Navigator interface {
	SubmitQuery(q string)
	InspectQuery(q string)
	RemoveQuery(q string)
	ViewQuery(q string)
	RefreshMetadata()
	Load(q string)
	Goto(link string) string
	GotoRel(link string) string
	QueriesStatusMode()
	LoadCommands()
	CleanCache()
	Snapshot() poller.View
	Changes() <-chan struct{}
}

// Fetcher retrieves the content of a query for preview.
type Fetcher func(ctx context.Context, path string) (*liquer.Payload, error)

type snapshotMsg struct {
	view poller.View
}

// nextSnapshotCmd waits for the next poller change and delivers the view
// as a message. The model re-arms it after every snapshot.
func (m *Model) nextSnapshotCmd() tea.Cmd {
	if m.nav == nil {
		return nil
	}
	changes := m.nav.Changes()
	nav := m.nav
	done := m.done
	return func() tea.Msg {
		select {
		case <-changes:
			return snapshotMsg{view: nav.Snapshot()}
		case <-done:
			return nil
		}
	}
}
