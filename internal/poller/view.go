package poller

import (
	"time"

	"github.com/orest-d/liquer/internal/liquer"
)

// Mode is the rendering strategy for the current result.
type Mode string

const (
	ModeNone          Mode = ""
	ModeIframe        Mode = "iframe"
	ModeImage         Mode = "image"
	ModeDataframe     Mode = "dataframe"
	ModeInspect       Mode = "inspect"
	ModeQueriesStatus Mode = "queries_status"
)

// Presentation reports whether the mode shows a loaded result.
func (m Mode) Presentation() bool {
	return m == ModeIframe || m == ModeDataframe || m == ModeImage
}

// Status is the client side indicator, independent of the server status.
type Status string

const (
	StatusOK      Status = "OK"
	StatusLoading Status = "LOADING"
	StatusError   Status = "ERROR"
)

// Phase tracks one navigation through submit, polling and load.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitted
	PhasePolling
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitted:
		return "submitted"
	case PhasePolling:
		return "polling"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (p Phase) Done() bool {
	return p == PhaseLoaded || p == PhaseFailed
}

// View is the observable state of the client. Snapshots share slices and
// pointers with the poller; they are replaced wholesale on every transition
// and must be treated as read-only.
type View struct {
	Token   uint64
	Version uint64
	Phase   Phase
	Polls   int

	Query      string
	QueryBasis string
	Filename   string
	Extension  string
	Mode       Mode

	Status  Status
	Message string
	Detail  string
	HTML    string

	State       *liquer.State
	Data        any
	RawData     []byte
	DataFrame   *liquer.DataFrame
	Metadata    *liquer.Metadata
	MetadataLog []liquer.LogEntry

	// ContentPath is the query path of a result shown by link rather than
	// inline.
	ContentPath  string
	ExternalLink string
	CSVLink      string
	XLSXLink     string

	Menu        []liquer.MenuItem
	ContextMenu []liquer.MenuItem

	Commands      []liquer.Command
	QueriesStatus []liquer.QueryStatus

	StartedAt  time.Time
	FinishedAt time.Time
}

const logTailSize = 5

// MetadataLogTail returns the newest n entries of the metadata log.
func (v View) MetadataLogTail(n int) []liquer.LogEntry {
	if n <= 0 {
		n = logTailSize
	}
	meta := liquer.Metadata{Log: v.MetadataLog}
	return meta.LogTail(n)
}

// Waiting reports whether a presentation mode is shown while the server has
// not finished evaluating.
func (v View) Waiting() bool {
	return v.Mode.Presentation() && v.Metadata != nil && v.Metadata.Status != liquer.StatusReady
}

func (v View) Duration() time.Duration {
	if v.StartedAt.IsZero() || v.FinishedAt.IsZero() {
		return 0
	}
	return v.FinishedAt.Sub(v.StartedAt)
}

func defaultMenu() []liquer.MenuItem {
	return []liquer.MenuItem{{
		Title: "Help",
		Items: []liquer.MenuItem{
			{Title: "Homepage", Link: "https://orest-d.github.io/liquer/"},
			{Title: "Commands", Link: "ns-meta/flat_commands_nodoc/to_df"},
		},
	}}
}

func initialView() View {
	return View{
		Status:      StatusOK,
		MetadataLog: []liquer.LogEntry{{Kind: "info", Message: "Initial log"}},
		Menu:        defaultMenu(),
	}
}
