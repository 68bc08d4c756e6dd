package ui

import (
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/orest-d/liquer/internal/bindings"
	"github.com/orest-d/liquer/internal/config"
	"github.com/orest-d/liquer/internal/history"
	"github.com/orest-d/liquer/internal/liquer"
	"github.com/orest-d/liquer/internal/poller"
	"github.com/orest-d/liquer/internal/render"
	"github.com/orest-d/liquer/internal/theme"
)

type Config struct {
	Navigator    Navigator
	Fetch        Fetcher
	History      *history.Store
	Bindings     *bindings.Map
	Theme        *theme.Theme
	Settings     config.Settings
	Server       string
	InitialQuery string
	Version      string
	Logger       *zap.Logger
	// Copy writes text to the system clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error
	// Link turns a query into an absolute URL for copying.
	Link func(string) string
}

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlayPrompt
	overlayHistory
	overlayCommands
	overlayMenu
)

type promptKind int

const (
	promptGoto promptKind = iota
	promptGotoRel
)

type paneFocus int

const (
	focusContent paneFocus = iota
	focusLog
)

type preview struct {
	path    string
	body    string
	err     error
	loading bool
}

type Model struct {
	cfg      Config
	nav      Navigator
	keys     *bindings.Map
	theme    theme.Theme
	settings config.Settings
	logger   *zap.Logger
	copy     func(string) error

	done chan struct{}
	stop func()

	ready  bool
	width  int
	height int
	layout paneLayout

	view    poller.View
	content viewport.Model
	logView viewport.Model
	table   table.Model
	tabular bool
	focus   paneFocus

	spinner  spinner.Model
	spinning bool

	overlay    overlayKind
	prompt     textinput.Model
	promptKind promptKind
	list       list.Model

	statusMessage statusMsg

	pendingChord    string
	hasPendingChord bool

	preview preview
	states  map[string]*liquer.State
	diff    string
}

func New(cfg Config) Model {
	th := theme.DefaultTheme()
	if cfg.Theme != nil {
		th = *cfg.Theme
	}
	bindingMap := cfg.Bindings
	if bindingMap == nil {
		bindingMap = bindings.DefaultMap()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	copyFn := cfg.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	prompt := textinput.New()
	prompt.Placeholder = "query"
	prompt.CharLimit = 0
	prompt.Prompt = ": "
	prompt.PromptStyle = th.Prompt
	prompt.TextStyle = th.PromptInput

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = th.StatusLoading

	tbl := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = mergeListStyle(styles.Header, th.TableHeader)
	styles.Cell = mergeListStyle(styles.Cell, th.TableCell)
	styles.Selected = th.TableSelected
	tbl.SetStyles(styles)

	overlayList := list.New(nil, listDelegateForTheme(th), 0, 0)
	overlayList.SetShowStatusBar(false)
	overlayList.SetShowHelp(false)
	overlayList.SetFilteringEnabled(true)
	overlayList.DisableQuitKeybindings()

	done := make(chan struct{})
	var once sync.Once

	m := Model{
		cfg:      cfg,
		nav:      cfg.Navigator,
		keys:     bindingMap,
		theme:    th,
		settings: cfg.Settings.Normalise(),
		logger:   logger,
		copy:     copyFn,
		done:     done,
		stop:     func() { once.Do(func() { close(done) }) },
		content:  viewport.New(0, 0),
		logView:  viewport.New(0, 0),
		table:    tbl,
		spinner:  spin,
		prompt:   prompt,
		list:     overlayList,
		states:   make(map[string]*liquer.State),
	}
	if m.nav != nil {
		m.view = m.nav.Snapshot()
	}
	m.refreshContent()
	return m
}

// Close releases the snapshot pump. Safe to call more than once.
func (m Model) Close() {
	m.stop()
}

func (m *Model) renderOptions() render.Options {
	opts := render.DefaultOptions()
	if w := m.contentWidth(); w > 0 {
		opts.Width = w
	}
	return opts
}

func (m *Model) currentQuery() string {
	return strings.TrimSpace(m.view.Query)
}

func (m *Model) setStatusMessage(msg statusMsg) {
	m.statusMessage = msg
}
