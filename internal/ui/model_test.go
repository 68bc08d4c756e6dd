package ui

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/orest-d/liquer/internal/history"
	"github.com/orest-d/liquer/internal/liquer"
	"github.com/orest-d/liquer/internal/poller"
)

type fakeNavigator struct {
	mu      sync.Mutex
	calls   []string
	view    poller.View
	changes chan struct{}
}

func newFakeNavigator() *fakeNavigator {
	return &fakeNavigator{changes: make(chan struct{}, 1)}
}

func (f *fakeNavigator) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeNavigator) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeNavigator) SubmitQuery(q string)  { f.record("submit " + q) }
func (f *fakeNavigator) InspectQuery(q string) { f.record("inspect " + q) }
func (f *fakeNavigator) RemoveQuery(q string)  { f.record("remove " + q) }
func (f *fakeNavigator) ViewQuery(q string)    { f.record("view " + q) }
func (f *fakeNavigator) RefreshMetadata()      { f.record("refresh") }
func (f *fakeNavigator) Load(q string)         { f.record("load " + q) }
func (f *fakeNavigator) QueriesStatusMode()    { f.record("queries_status") }
func (f *fakeNavigator) LoadCommands()         { f.record("commands") }
func (f *fakeNavigator) CleanCache()           { f.record("clean") }
func (f *fakeNavigator) Goto(link string) string {
	f.record("goto " + link)
	return link
}
func (f *fakeNavigator) GotoRel(link string) string {
	f.record("gotorel " + link)
	return link
}
func (f *fakeNavigator) Snapshot() poller.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}
func (f *fakeNavigator) Changes() <-chan struct{} { return f.changes }

func newTestModel(t *testing.T, nav *fakeNavigator, mutate ...func(*Config)) *Model {
	t.Helper()
	cfg := Config{Navigator: nav, Server: "http://localhost:5000"}
	for _, fn := range mutate {
		fn(&cfg)
	}
	model := New(cfg)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model = updated.(Model)
	t.Cleanup(model.Close)
	return &model
}

func sendKeys(t *testing.T, model *Model, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if cmd := model.handleKey(keyMsgFor(key)); cmd != nil {
			_ = cmd()
		}
	}
}

func keyMsgFor(key string) tea.KeyMsg {
	switch key {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func TestSnapshotPumpDeliversView(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	nav.view = poller.View{Query: "a/b", Status: poller.StatusOK, Version: 3}

	cmd := model.nextSnapshotCmd()
	nav.changes <- struct{}{}
	msg, ok := cmd().(snapshotMsg)
	if !ok {
		t.Fatalf("expected snapshot message")
	}
	if msg.view.Query != "a/b" || msg.view.Version != 3 {
		t.Fatalf("unexpected snapshot %+v", msg.view)
	}
}

func TestSnapshotPumpStopsOnClose(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	cmd := model.nextSnapshotCmd()
	model.Close()
	if msg := cmd(); msg != nil {
		t.Fatalf("expected nil after close, got %T", msg)
	}
}

func TestChordLoadsRoot(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	sendKeys(t, model, "g")
	if !model.hasPendingChord {
		t.Fatalf("expected g to start a chord")
	}
	sendKeys(t, model, "h")
	if got := nav.last(); got != "load " {
		t.Fatalf("expected root load, got %q", got)
	}
	if model.hasPendingChord {
		t.Fatalf("chord must be cleared")
	}
}

func TestGotoPromptNavigates(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	sendKeys(t, model, ":")
	if model.overlay != overlayPrompt {
		t.Fatalf("expected prompt overlay")
	}
	model.prompt.SetValue("#data/sum.json")
	sendKeys(t, model, "enter")
	if got := nav.last(); got != "goto data/sum.json" {
		t.Fatalf("unexpected call %q", got)
	}
	if model.overlay != overlayNone {
		t.Fatalf("prompt must close after enter")
	}
}

func TestGotoRelativePrompt(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	sendKeys(t, model, "g", "r")
	model.prompt.SetValue("x.csv")
	sendKeys(t, model, "enter")
	if got := nav.last(); got != "gotorel x.csv" {
		t.Fatalf("unexpected call %q", got)
	}
}

func TestUpSubmitsParent(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	model.applySnapshot(poller.View{Query: "a/b/c", Phase: poller.PhaseLoaded})
	sendKeys(t, model, "u")
	if got := nav.last(); got != "submit a/b" {
		t.Fatalf("unexpected call %q", got)
	}

	model.applySnapshot(poller.View{Query: "a", Phase: poller.PhaseLoaded})
	sendKeys(t, model, "u")
	if got := nav.last(); got != "load " {
		t.Fatalf("expected root load for top level query, got %q", got)
	}
}

func TestActionKeysReachNavigator(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	model.applySnapshot(poller.View{Query: "q/x", Phase: poller.PhaseLoaded})
	cases := map[string]string{
		"i": "inspect q/x",
		"v": "view q/x",
		"x": "remove q/x",
		"m": "refresh",
		"r": "load q/x",
		"s": "queries_status",
	}
	for key, want := range cases {
		sendKeys(t, model, key)
		if got := nav.last(); got != want {
			t.Fatalf("key %q: expected %q, got %q", key, want, got)
		}
	}
	sendKeys(t, model, "g", "c")
	if got := nav.last(); got != "clean" {
		t.Fatalf("expected clean cache, got %q", got)
	}
}

func TestDataframeSnapshotFillsTable(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	df, err := liquer.ParseDataFrame([]byte(`{"schema":{"fields":[{"name":"a"},{"name":"b"}]},"data":[{"a":1,"b":"x"},{"a":2,"b":"y"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	model.applySnapshot(poller.View{
		Query:     "df/data.json",
		Mode:      poller.ModeDataframe,
		Phase:     poller.PhaseLoaded,
		Status:    poller.StatusOK,
		DataFrame: df,
	})
	if !model.tabular {
		t.Fatalf("expected table content")
	}
	if got := len(model.table.Rows()); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}
	if cols := model.table.Columns(); len(cols) != 2 || cols[0].Title != "a" {
		t.Fatalf("unexpected columns %+v", cols)
	}
	if !strings.Contains(model.View(), "liquer") {
		t.Fatalf("expected header in view")
	}
}

func TestPreviewFetchedForLinkedContent(t *testing.T) {
	nav := newFakeNavigator()
	var fetched []string
	model := newTestModel(t, nav, func(cfg *Config) {
		cfg.Fetch = func(_ context.Context, path string) (*liquer.Payload, error) {
			fetched = append(fetched, path)
			return &liquer.Payload{Path: path, ContentType: "text/plain", Body: []byte("plain preview body")}, nil
		}
	})
	v := poller.View{Token: 1, Query: "report", Mode: poller.ModeIframe, Phase: poller.PhaseLoaded, ContentPath: "report"}
	if cmd := model.applySnapshot(v); cmd == nil {
		t.Fatalf("expected preview command")
	}
	if !model.preview.loading {
		t.Fatalf("expected preview to be loading")
	}

	msg := model.fetchPreviewCmd("report")()
	updated, _ := model.Update(msg)
	next := updated.(Model)
	if len(fetched) != 1 || fetched[0] != "report" {
		t.Fatalf("unexpected fetches %v", fetched)
	}
	if !strings.Contains(next.preview.body, "plain preview body") {
		t.Fatalf("expected preview body, got %q", next.preview.body)
	}

	next.handlePreview(previewMsg{path: "other", payload: &liquer.Payload{Body: []byte("stale")}})
	if strings.Contains(next.preview.body, "stale") {
		t.Fatalf("stale preview must be ignored")
	}
}

func TestCopyLinkUsesAbsoluteURL(t *testing.T) {
	nav := newFakeNavigator()
	var copied string
	model := newTestModel(t, nav, func(cfg *Config) {
		cfg.Copy = func(s string) error {
			copied = s
			return nil
		}
		cfg.Link = func(q string) string { return "http://localhost:5000/liquer/q/" + q }
	})
	model.applySnapshot(poller.View{Query: "fig/image.png", Mode: poller.ModeImage, ContentPath: "fig/image.png", Phase: poller.PhaseLoaded})

	cmd := model.handleKey(keyMsgFor("y"))
	if cmd == nil {
		t.Fatalf("expected copy command")
	}
	msg, ok := cmd().(clipboardMsg)
	if !ok || msg.err != nil {
		t.Fatalf("unexpected copy result %+v", msg)
	}
	if copied != "http://localhost:5000/liquer/q/fig/image.png" {
		t.Fatalf("unexpected clipboard %q", copied)
	}
}

func TestHistoryOverlaySubmitsEntry(t *testing.T) {
	nav := newFakeNavigator()
	store := history.NewStore(filepath.Join(t.TempDir(), "history.json"), 0)
	if _, err := store.Append(history.Entry{Query: "old/query", Status: "ready"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	model := newTestModel(t, nav, func(cfg *Config) { cfg.History = store })

	sendKeys(t, model, "h")
	if model.overlay != overlayHistory {
		t.Fatalf("expected history overlay")
	}
	if got := len(model.list.Items()); got != 1 {
		t.Fatalf("expected 1 history item, got %d", got)
	}
	sendKeys(t, model, "enter")
	if got := nav.last(); got != "submit old/query" {
		t.Fatalf("unexpected call %q", got)
	}
	if model.overlay != overlayNone {
		t.Fatalf("overlay must close after selection")
	}
}

func TestMenuOverlayFlattensItems(t *testing.T) {
	items := menuItems([]liquer.MenuItem{{
		Title: "Help",
		Items: []liquer.MenuItem{{Title: "Commands", Link: "ns-meta/flat_commands_nodoc/to_df"}},
	}}, []liquer.MenuItem{{Title: "Export", Link: "data.csv"}})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0].(linkItem)
	if first.title != "Help / Commands" || first.kind != linkRelative {
		t.Fatalf("unexpected item %+v", first)
	}
}

func TestHelpOverlayBlocksActions(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	sendKeys(t, model, "?")
	if model.overlay != overlayHelp {
		t.Fatalf("expected help overlay")
	}
	sendKeys(t, model, "i")
	if got := nav.last(); got != "" {
		t.Fatalf("help must swallow actions, got %q", got)
	}
	if !strings.Contains(model.View(), "Inspect evaluation") {
		t.Fatalf("expected help text in view")
	}
	sendKeys(t, model, "?")
	if model.overlay != overlayNone {
		t.Fatalf("expected help to close")
	}
}

func TestErrorSnapshotSetsStatus(t *testing.T) {
	nav := newFakeNavigator()
	model := newTestModel(t, nav)
	model.applySnapshot(poller.View{Query: "bad", Status: poller.StatusError, Message: "State loading error", Phase: poller.PhaseFailed})
	if model.statusMessage.level != statusError || model.statusMessage.text != "State loading error" {
		t.Fatalf("unexpected status %+v", model.statusMessage)
	}
	if model.spinning {
		t.Fatalf("spinner must stop on failure")
	}
}
