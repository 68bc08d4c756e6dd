// Package poller drives navigation against a liquer server: it submits
// queries, polls their metadata until evaluation finishes and loads the
// result into a View.
//
// Every navigation takes a new request token and cancels the work started
// for the previous one. Transitions carry the token they were started with
// and are dropped once a newer navigation exists, so a slow response for an
// abandoned query never overwrites the current view.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orest-d/liquer/internal/errdef"
	"github.com/orest-d/liquer/internal/liquer"
	"github.com/orest-d/liquer/internal/query"
)

// DefaultInterval is the delay between metadata polls.
const DefaultInterval = 500 * time.Millisecond

// API is the subset of the liquer client the poller needs.
type API interface {
	Submit(ctx context.Context, q string) (*liquer.Metadata, error)
	Remove(ctx context.Context, q string) (*liquer.Metadata, error)
	Metadata(ctx context.Context, q string) (*liquer.Metadata, error)
	State(ctx context.Context, basis string) (*liquer.State, error)
	FetchJSON(ctx context.Context, path string, out any) (*liquer.Payload, error)
	Commands(ctx context.Context) ([]liquer.Command, error)
	QueriesStatus(ctx context.Context) ([]liquer.QueryStatus, error)
	CleanCache(ctx context.Context) (*liquer.CleanResult, error)
	URL(path string) string
}

type Option func(*Poller)

func WithClock(c Clock) Option {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFinishHook registers fn to run whenever a navigation reaches a final
// phase. fn runs on the poller goroutine and must not block.
func WithFinishHook(fn func(View)) Option {
	return func(p *Poller) {
		p.onFinish = fn
	}
}

type Poller struct {
	api      API
	clock    Clock
	interval time.Duration
	logger   *zap.Logger
	onFinish func(View)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	view     View
	token    uint64
	navStop  context.CancelFunc
	suppress bool
	closed   bool

	changes chan struct{}
}

func New(api API, opts ...Option) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		api:      api,
		clock:    realClock{},
		interval: DefaultInterval,
		logger:   zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		view:     initialView(),
		changes:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Changes signals that the view changed. Signals coalesce; read Snapshot
// after each one.
func (p *Poller) Changes() <-chan struct{} {
	return p.changes
}

func (p *Poller) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Close cancels all running work and waits for it to stop.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}

// SuppressNextLoad makes the next Load return without fetching anything.
// Navigation to an external link uses it to swallow the root load that the
// route change triggers.
func (p *Poller) SuppressNextLoad() {
	p.mu.Lock()
	p.suppress = true
	p.mu.Unlock()
}

func (p *Poller) LoadSuppressed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suppress
}

// begin starts a new navigation: it bumps the token and cancels whatever the
// previous navigation still has in flight.
func (p *Poller) begin() (context.Context, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.navStop != nil {
		p.navStop()
	}
	ctx, cancel := context.WithCancel(p.ctx)
	p.navStop = cancel
	p.token++
	p.view.Token = p.token
	return ctx, p.token
}

// apply runs fn against the view when token is still current. It reports
// whether the transition was applied.
func (p *Poller) apply(token uint64, fn func(*View)) bool {
	p.mu.Lock()
	if token != p.token {
		p.mu.Unlock()
		p.logger.Debug("discarding stale transition",
			zap.Uint64("token", token),
			zap.Uint64("current", p.token))
		return false
	}
	fn(&p.view)
	p.view.Version++
	finished := p.view.Phase.Done() && p.view.FinishedAt.IsZero()
	if finished {
		p.view.FinishedAt = time.Now()
	}
	snap := p.view
	p.mu.Unlock()

	p.signal()
	if finished && p.onFinish != nil {
		p.onFinish(snap)
	}
	return true
}

// applyShared updates fields that are not tied to a navigation, such as the
// command list.
func (p *Poller) applyShared(fn func(*View)) {
	p.mu.Lock()
	fn(&p.view)
	p.view.Version++
	p.mu.Unlock()
	p.signal()
}

func (p *Poller) signal() {
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

func (p *Poller) spawn(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

func (v *View) info(msg string) {
	v.Status = StatusOK
	v.Message = msg
	v.Detail = ""
}

func (v *View) fail(msg string, err error) {
	v.Status = StatusError
	v.Message = msg
	v.Detail = errdef.Message(err)
	if body := errdef.BodyOf(err); len(body) > 0 {
		v.HTML = string(body)
	}
}

// fail records err against the navigation identified by token. Errors caused
// by cancellation are swallowed: the navigation they belong to is gone.
func (p *Poller) fail(ctx context.Context, token uint64, callMsg, jsonMsg string, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	msg := callMsg
	if errdef.CodeOf(err) == errdef.CodeParse {
		msg = jsonMsg
	}
	p.logger.Warn(msg, zap.Uint64("token", token), zap.Error(err))
	p.apply(token, func(v *View) {
		v.fail(msg, err)
		v.Phase = PhaseFailed
	})
}

func (p *Poller) startNavigation(token uint64, q string, mode *Mode) {
	p.apply(token, func(v *View) {
		v.Query = q
		v.Phase = PhaseSubmitted
		v.Polls = 0
		v.StartedAt = time.Now()
		v.FinishedAt = time.Time{}
		if mode != nil {
			v.Mode = *mode
		}
	})
}

// SubmitQuery asks the server to evaluate q and follows it until the result
// is loaded or evaluation fails.
func (p *Poller) SubmitQuery(q string) {
	p.submit(q, nil, "submit query", p.api.Submit)
}

// InspectQuery submits q and shows its evaluation progress.
func (p *Poller) InspectQuery(q string) {
	mode := ModeInspect
	p.submit(q, &mode, "submit query", p.api.Submit)
}

// RemoveQuery evicts q from the server cache, then follows its
// re-evaluation.
func (p *Poller) RemoveQuery(q string) {
	p.submit(q, nil, "remove query", p.api.Remove)
}

func (p *Poller) submit(
	q string,
	mode *Mode,
	label string,
	call func(context.Context, string) (*liquer.Metadata, error),
) {
	ctx, token := p.begin()
	p.logger.Info("submit", zap.String("query", q), zap.String("op", label), zap.Uint64("token", token))
	p.startNavigation(token, q, mode)
	p.spawn(func() {
		meta, err := call(ctx, q)
		if err != nil {
			p.fail(ctx, token, "API call error ("+label+")", "Json error ("+label+")", err)
			return
		}
		if meta == nil {
			meta = liquer.UndefinedMetadata()
		}
		if !p.apply(token, func(v *View) { v.Metadata = meta }) {
			return
		}
		p.poll(ctx, token)
	})
}

// ViewQuery shows q without submitting it, waiting for an evaluation that
// is already running.
func (p *Poller) ViewQuery(q string) {
	ctx, token := p.begin()
	mode := ModeIframe
	p.startNavigation(token, q, &mode)
	p.spawn(func() { p.poll(ctx, token) })
}

// RefreshMetadata restarts polling for the current query.
func (p *Poller) RefreshMetadata() {
	ctx, token := p.begin()
	p.apply(token, func(v *View) {
		v.Phase = PhaseSubmitted
		v.StartedAt = time.Now()
		v.FinishedAt = time.Time{}
	})
	p.spawn(func() { p.poll(ctx, token) })
}

type pollAction int

const (
	pollStop pollAction = iota
	pollRetry
	pollLoad
)

func (p *Poller) poll(ctx context.Context, token uint64) {
	for {
		switch p.refreshOnce(ctx, token) {
		case pollRetry:
			select {
			case <-ctx.Done():
				return
			case <-p.clock.After(p.interval):
			}
		case pollLoad:
			p.mu.Lock()
			q := p.view.Query
			p.mu.Unlock()
			p.load(ctx, token, q)
			return
		default:
			return
		}
	}
}

// refreshOnce fetches the metadata of the current query once and decides
// what happens next. Failures stop the chain without a retry.
func (p *Poller) refreshOnce(ctx context.Context, token uint64) pollAction {
	p.mu.Lock()
	q := p.view.Query
	p.mu.Unlock()

	meta, err := p.api.Metadata(ctx, q)
	if err != nil {
		p.fail(ctx, token, "API call error (refresh metadata)", "Json error (refresh metadata)", err)
		return pollStop
	}
	if meta == nil {
		meta = liquer.UndefinedMetadata()
	}

	action := pollRetry
	switch {
	case meta.Status == liquer.StatusReady:
		action = pollLoad
	case meta.Status.Terminal():
		action = pollStop
	}

	applied := p.apply(token, func(v *View) {
		v.Metadata = meta
		v.MetadataLog = meta.Log
		v.Polls++
		switch action {
		case pollRetry:
			v.Phase = PhasePolling
		case pollLoad:
			v.Phase = PhaseLoading
		case pollStop:
			v.Phase = PhaseFailed
			if meta.Message != "" {
				v.Detail = meta.Message
			}
		}
	})
	if !applied {
		return pollStop
	}
	p.logger.Debug("metadata polled",
		zap.String("query", q),
		zap.String("status", string(meta.Status)),
		zap.Uint64("token", token))
	return action
}

// Load fetches the state of q and dispatches the result into a display
// mode. When the suppress flag is set, Load clears it and returns without
// issuing any request.
func (p *Poller) Load(q string) {
	p.mu.Lock()
	if p.suppress {
		p.suppress = false
		p.view.XLSXLink = ""
		p.view.CSVLink = ""
		p.mu.Unlock()
		p.logger.Debug("load suppressed", zap.String("query", q))
		p.signal()
		return
	}
	p.mu.Unlock()

	ctx, token := p.begin()
	p.apply(token, func(v *View) {
		v.Phase = PhaseLoading
		v.StartedAt = time.Now()
		v.FinishedAt = time.Time{}
		v.Polls = 0
	})
	p.spawn(func() { p.load(ctx, token, q) })
}

func (p *Poller) load(ctx context.Context, token uint64, q string) {
	p.mu.Lock()
	if token != p.token {
		p.mu.Unlock()
		return
	}
	p.view.XLSXLink = ""
	p.view.CSVLink = ""
	if p.suppress {
		p.suppress = false
		p.mu.Unlock()
		p.logger.Debug("load suppressed", zap.String("query", q), zap.Uint64("token", token))
		p.apply(token, func(v *View) { v.Phase = PhaseLoaded })
		return
	}
	p.mu.Unlock()

	p.logger.Info("load", zap.String("query", q), zap.Uint64("token", token))
	parsed := query.Parse(q)
	if parsed.IsRoot() {
		p.loadRoot(ctx, token, q)
		return
	}

	if !p.apply(token, func(v *View) {
		v.Query = q
		v.QueryBasis = parsed.Basis
		v.Filename = parsed.Filename
		v.Extension = parsed.Extension
		v.Status = StatusLoading
		v.Mode = ModeNone
		v.Phase = PhaseLoading
	}) {
		return
	}

	st, err := p.api.State(ctx, parsed.Basis)
	if err != nil {
		p.fail(ctx, token, "State loading error", "Json error (state)", err)
		return
	}

	path := q
	var csvLink, xlsxLink string
	switch st.TypeIdentifier {
	case typeDataframe:
		if !parsed.HasExtension() {
			path = strings.TrimRight(q, "/") + "/data.json"
		}
		csvLink = p.api.URL(parsed.Sibling("csv"))
		xlsxLink = p.api.URL(parsed.Sibling("xlsx"))
	case "matplotlibfigure":
		if !parsed.HasExtension() {
			path = strings.TrimRight(q, "/") + "/image.png"
		}
	}

	target := Target{TypeIdentifier: st.TypeIdentifier, StateExtension: st.Extension, Path: path}
	rule := Dispatch(target)
	p.logger.Debug("dispatch", zap.String("rule", rule.Name), zap.String("path", path))

	if !p.apply(token, func(v *View) {
		v.ContentPath = ""
		v.Data = nil
		v.RawData = nil
		v.DataFrame = nil
		v.State = st
		meta := st.Metadata
		v.Metadata = &meta
		if st.Log != nil {
			v.MetadataLog = st.Log
		}
		if menu, ok := st.Menu(); ok {
			v.Menu = menu
		}
		if menu, ok := st.ContextMenu(); ok {
			v.ContextMenu = menu
		}
		v.HTML = ""
		v.info("State loaded.")
		v.CSVLink = csvLink
		v.XLSXLink = xlsxLink
		if rule.Inline {
			v.Status = StatusLoading
			return
		}
		v.ContentPath = path
		v.ExternalLink = p.api.URL(path)
		v.Mode = rule.Mode(target)
		v.Phase = PhaseLoaded
	}) {
		return
	}

	if rule.Inline {
		p.loadJSON(ctx, token, path, rule.Mode(target))
	}
}

func (p *Poller) loadJSON(ctx context.Context, token uint64, path string, mode Mode) {
	var raw json.RawMessage
	if _, err := p.api.FetchJSON(ctx, path, &raw); err != nil {
		p.fail(ctx, token, "Data loading error", "Json error (data)", err)
		return
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		p.fail(ctx, token, "Data loading error", "Json error (data)",
			errdef.Wrap(errdef.CodeParse, err, "decode data"))
		return
	}

	var df *liquer.DataFrame
	if mode == ModeDataframe {
		parsed, err := liquer.ParseDataFrame(raw)
		if err != nil {
			p.fail(ctx, token, "Data loading error", "Json error (data)",
				errdef.Wrap(errdef.CodeParse, err, "decode dataframe"))
			return
		}
		df = parsed
	}

	p.apply(token, func(v *View) {
		v.HTML = ""
		v.Data = data
		v.RawData = raw
		v.DataFrame = df
		v.info("Data loaded.")
		if mode != ModeNone {
			v.Mode = mode
		}
		v.Phase = PhaseLoaded
	})
}

func (p *Poller) loadRoot(ctx context.Context, token uint64, q string) {
	if !p.apply(token, func(v *View) {
		v.Query = q
		v.QueryBasis = ""
		v.Filename = ""
		v.Extension = ""
		v.Data = nil
		v.Status = StatusLoading
		v.Phase = PhaseLoading
	}) {
		return
	}
	st, err := p.api.State(ctx, "")
	if err != nil {
		p.fail(ctx, token, "State loading error", "Json error (state)", err)
		return
	}
	p.apply(token, func(v *View) {
		v.Data = nil
		v.State = st
		v.HTML = ""
		v.Mode = ModeNone
		v.info("State loaded.")
		v.Phase = PhaseLoaded
	})
}

// Route handles a change of the navigation route: a query is submitted, an
// empty route loads the server root.
func (p *Poller) Route(route string) {
	route = strings.TrimPrefix(route, "#")
	if route != "" {
		p.SubmitQuery(route)
		return
	}
	p.Load("")
}

// Goto navigates to link. Links with a scheme are shown as external content
// without contacting the server. It returns the query that was submitted,
// or "" for external links.
func (p *Poller) Goto(link string) string {
	if query.IsExternal(link) {
		p.gotoExternal(link)
		return ""
	}
	p.SubmitQuery(link)
	return link
}

// GotoRel is Goto with link resolved against the current query basis.
func (p *Poller) GotoRel(link string) string {
	if query.IsExternal(link) {
		p.gotoExternal(link)
		return ""
	}
	p.mu.Lock()
	basis := p.view.QueryBasis
	p.mu.Unlock()
	resolved := query.Resolve(basis, link)
	p.SubmitQuery(resolved)
	return resolved
}

func (p *Poller) gotoExternal(link string) {
	p.SuppressNextLoad()
	_, token := p.begin()
	p.logger.Info("external link", zap.String("link", link))
	p.apply(token, func(v *View) {
		v.ContentPath = ""
		v.ExternalLink = link
		v.Mode = ModeIframe
		v.Phase = PhaseLoaded
		v.FinishedAt = time.Time{}
	})
	// the route is cleared for external links; the root load it triggers is
	// swallowed by the suppress flag.
	p.Route("")
}

// QueriesStatusMode switches to the active query listing and keeps it
// fresh until the mode changes.
func (p *Poller) QueriesStatusMode() {
	ctx, token := p.begin()
	p.apply(token, func(v *View) { v.Mode = ModeQueriesStatus })
	p.spawn(func() {
		for {
			rows, err := p.api.QueriesStatus(ctx)
			if err != nil {
				p.fail(ctx, token, "API call error (get_queries_status)", "Json error (get_queries_status)", err)
				return
			}
			keep := false
			if !p.apply(token, func(v *View) {
				v.QueriesStatus = rows
				keep = v.Mode == ModeQueriesStatus
			}) || !keep {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-p.clock.After(p.interval):
			}
		}
	})
}

// LoadCommands fetches the command catalogue. It is independent of the
// current navigation.
func (p *Poller) LoadCommands() {
	p.spawn(func() {
		cmds, err := p.api.Commands(p.ctx)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			msg := "Data loading error"
			if errdef.CodeOf(err) == errdef.CodeParse {
				msg = "Json error (commands)"
			}
			p.applyShared(func(v *View) { v.fail(msg, err) })
			return
		}
		p.applyShared(func(v *View) {
			v.Commands = cmds
			v.info("Commands loaded.")
		})
	})
}

func (p *Poller) CleanCache() {
	p.spawn(func() {
		res, err := p.api.CleanCache(p.ctx)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			p.applyShared(func(v *View) { v.fail("Cache cleaning error", err) })
			return
		}
		msg := "Cache cleaned"
		if res != nil && res.Message != "" {
			msg = res.Message
		}
		p.applyShared(func(v *View) { v.info(msg) })
	})
}
