package poller

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/orest-d/liquer/internal/errdef"
	"github.com/orest-d/liquer/internal/liquer"
)

type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	submit  *liquer.Metadata
	meta    map[string]*liquer.Metadata
	state   map[string]*liquer.State
	data    map[string]string
	errs    map[string]error
	gates   map[string]chan struct{}
	metaRet map[string]chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:   map[string]int{},
		submit:  &liquer.Metadata{Status: liquer.StatusSubmitted},
		meta:    map[string]*liquer.Metadata{},
		state:   map[string]*liquer.State{},
		data:    map[string]string{},
		errs:    map[string]error{},
		gates:   map[string]chan struct{}{},
		metaRet: map[string]chan struct{}{},
	}
}

func (f *fakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) Submit(ctx context.Context, q string) (*liquer.Metadata, error) {
	if err := f.record("submit"); err != nil {
		return nil, err
	}
	return f.submit, nil
}

func (f *fakeAPI) Remove(ctx context.Context, q string) (*liquer.Metadata, error) {
	if err := f.record("remove"); err != nil {
		return nil, err
	}
	return f.submit, nil
}

func (f *fakeAPI) Metadata(ctx context.Context, q string) (*liquer.Metadata, error) {
	if err := f.record("meta"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	gate := f.gates[q]
	done := f.metaRet[q]
	meta := f.meta[q]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if done != nil {
		defer close(done)
	}
	return meta, nil
}

func (f *fakeAPI) State(ctx context.Context, basis string) (*liquer.State, error) {
	if err := f.record("state"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.state[basis]
	if !ok {
		return nil, errdef.New(errdef.CodeHTTP, "no state for %q", basis)
	}
	return st, nil
}

func (f *fakeAPI) FetchJSON(ctx context.Context, path string, out any) (*liquer.Payload, error) {
	if err := f.record("data"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	body, ok := f.data[path]
	f.mu.Unlock()
	if !ok {
		return nil, errdef.New(errdef.CodeHTTP, "no data for %q", path)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "decode")
	}
	return &liquer.Payload{Path: path, Body: []byte(body)}, nil
}

func (f *fakeAPI) Commands(ctx context.Context) ([]liquer.Command, error) {
	if err := f.record("commands"); err != nil {
		return nil, err
	}
	return []liquer.Command{{Name: "hello"}}, nil
}

func (f *fakeAPI) QueriesStatus(ctx context.Context) ([]liquer.QueryStatus, error) {
	if err := f.record("queries_status"); err != nil {
		return nil, err
	}
	return []liquer.QueryStatus{{Query: "a/b", Status: liquer.StatusEvaluation}}, nil
}

func (f *fakeAPI) CleanCache(ctx context.Context) (*liquer.CleanResult, error) {
	if err := f.record("clean"); err != nil {
		return nil, err
	}
	return &liquer.CleanResult{}, nil
}

func (f *fakeAPI) URL(path string) string {
	return "http://liquer.test/liquer/q/" + path
}

type fakeClock struct {
	mu     sync.Mutex
	waits  []time.Duration
	fire   chan time.Time
	called chan time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		fire:   make(chan time.Time),
		called: make(chan time.Duration, 64),
	}
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	c.called <- d
	return c.fire
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

func waitFor(t *testing.T, p *Poller, what string, cond func(View) bool) View {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		v := p.Snapshot()
		if cond(v) {
			return v
		}
		select {
		case <-p.Changes():
		case <-deadline:
			t.Fatalf("timed out waiting for %s; view %+v", what, p.Snapshot())
		}
	}
}

func done(v View) bool { return v.Phase.Done() }

func TestEvaluationSchedulesSingleRetry(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["a/b"] = &liquer.Metadata{Status: liquer.StatusEvaluation, Log: []liquer.LogEntry{{Kind: "info", Message: "working"}}}
	clock := newFakeClock()
	p := New(api, WithClock(clock))

	p.SubmitQuery("a/b")
	select {
	case d := <-clock.called:
		if d != 500*time.Millisecond {
			t.Fatalf("expected 500ms retry, got %v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no retry scheduled")
	}

	v := p.Snapshot()
	if v.Phase != PhasePolling || v.Polls != 1 {
		t.Fatalf("expected first poll in progress, got phase %v polls %d", v.Phase, v.Polls)
	}
	if len(v.MetadataLog) != 1 || v.MetadataLog[0].Message != "working" {
		t.Fatalf("metadata log not taken from poll: %#v", v.MetadataLog)
	}
	if got := api.count("state"); got != 0 {
		t.Fatalf("expected no load while evaluating, got %d state calls", got)
	}
	if got := len(clock.recorded()); got != 1 {
		t.Fatalf("expected one scheduled retry, got %d", got)
	}
	p.Close()
}

func TestReadyLoadsExactlyOnce(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["x/hello.txt"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.state["x"] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady, TypeIdentifier: "text"}, Extension: "txt"}
	clock := newFakeClock()
	p := New(api, WithClock(clock))
	defer p.Close()

	p.SubmitQuery("x/hello.txt")
	v := waitFor(t, p, "load", done)

	if v.Phase != PhaseLoaded {
		t.Fatalf("expected loaded, got %v (%s: %s)", v.Phase, v.Message, v.Detail)
	}
	if api.count("state") != 1 {
		t.Fatalf("expected exactly one state load, got %d", api.count("state"))
	}
	if len(clock.recorded()) != 0 {
		t.Fatalf("ready status must not reschedule, got %v", clock.recorded())
	}
	if v.Mode != ModeIframe || v.ExternalLink != api.URL("x/hello.txt") {
		t.Fatalf("unexpected dispatch: mode %q link %q", v.Mode, v.ExternalLink)
	}
	if v.QueryBasis != "x" || v.Filename != "hello" || v.Extension != "txt" {
		t.Fatalf("unexpected derived fields %+v", v)
	}
	if v.Message != "State loaded." || v.Status != StatusOK {
		t.Fatalf("unexpected status %q %q", v.Status, v.Message)
	}
}

func TestNullMetadataBecomesUndefined(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	clock := newFakeClock()
	p := New(api, WithClock(clock))

	p.SubmitQuery("missing")
	<-clock.called

	v := p.Snapshot()
	if v.Metadata == nil || v.Metadata.Status != liquer.StatusUndefined {
		t.Fatalf("expected undefined metadata, got %#v", v.Metadata)
	}
	if v.MetadataLog == nil || len(v.MetadataLog) != 0 {
		t.Fatalf("expected empty log, got %#v", v.MetadataLog)
	}
	p.Close()
}

func TestErrorStatusStopsWithoutLoad(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["broken"] = &liquer.Metadata{Status: liquer.StatusError, Message: "boom"}
	clock := newFakeClock()
	p := New(api, WithClock(clock))
	defer p.Close()

	p.SubmitQuery("broken")
	v := waitFor(t, p, "failure", done)
	if v.Phase != PhaseFailed || v.Detail != "boom" {
		t.Fatalf("unexpected view %+v", v)
	}
	if api.count("state") != 0 || len(clock.recorded()) != 0 {
		t.Fatalf("error status must neither load nor retry")
	}
}

func TestSuppressedLoadSkipsRequests(t *testing.T) {
	api := newFakeAPI()
	p := New(api, WithClock(newFakeClock()))
	defer p.Close()

	p.SuppressNextLoad()
	p.Load("a/b.json")

	if p.LoadSuppressed() {
		t.Fatalf("suppress flag was not cleared")
	}
	if api.total() != 0 {
		t.Fatalf("suppressed load issued %d requests", api.total())
	}
}

func TestDataframeDispatch(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["make_df"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.state["make_df"] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady, TypeIdentifier: "dataframe"}, Extension: "csv"}
	api.data["make_df/data.json"] = `{"schema":{"fields":[{"name":"a"},{"name":"b"}]},"data":[{"a":1,"b":"x"}]}`
	p := New(api, WithClock(newFakeClock()))
	defer p.Close()

	p.SubmitQuery("make_df")
	v := waitFor(t, p, "dataframe", done)

	if v.Mode != ModeDataframe || v.DataFrame == nil {
		t.Fatalf("expected dataframe mode, got %q (%s: %s)", v.Mode, v.Message, v.Detail)
	}
	if rows := v.DataFrame.Rows(); len(rows) != 1 || rows[0][0] != "1" || rows[0][1] != "x" {
		t.Fatalf("unexpected rows %#v", rows)
	}
	if v.CSVLink != api.URL("make_df/make_df.csv") || v.XLSXLink != api.URL("make_df/make_df.xlsx") {
		t.Fatalf("unexpected export links %q %q", v.CSVLink, v.XLSXLink)
	}
	if v.Message != "Data loaded." {
		t.Fatalf("expected data loaded message, got %q", v.Message)
	}
}

func TestJSONDispatchKeepsMode(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["d/x.json"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.state["d"] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady, TypeIdentifier: "dictionary"}, Extension: "json"}
	api.data["d/x.json"] = `{"k":"v"}`
	p := New(api, WithClock(newFakeClock()))
	defer p.Close()

	p.SubmitQuery("d/x.json")
	v := waitFor(t, p, "json", done)

	if v.Mode != ModeNone {
		t.Fatalf("expected empty mode, got %q", v.Mode)
	}
	m, ok := v.Data.(map[string]any)
	if !ok || m["k"] != "v" {
		t.Fatalf("unexpected data %#v", v.Data)
	}
	if v.CSVLink != "" || v.XLSXLink != "" {
		t.Fatalf("non dataframe result must not carry export links")
	}
}

func TestStateErrorsReportBody(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"http", errdef.WithBody(errdef.New(errdef.CodeHTTP, "500"), []byte("<b>trace</b>")), "State loading error"},
		{"json", errdef.Wrap(errdef.CodeParse, context.DeadlineExceeded, "decode"), "Json error (state)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI()
			api.errs["state"] = tc.err
			p := New(api, WithClock(newFakeClock()))
			defer p.Close()

			p.Load("q/r.txt")
			v := waitFor(t, p, "failure", done)
			if v.Status != StatusError || v.Message != tc.want {
				t.Fatalf("unexpected status %q %q", v.Status, v.Message)
			}
			if body := errdef.BodyOf(tc.err); len(body) > 0 && v.HTML != string(body) {
				t.Fatalf("expected error body shown, got %q", v.HTML)
			}
		})
	}
}

func TestStaleNavigationIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	gate := make(chan struct{})
	slowDone := make(chan struct{})
	api.gates["slow"] = gate
	api.metaRet["slow"] = slowDone
	api.meta["slow"] = &liquer.Metadata{Status: liquer.StatusReady, Message: "slow"}
	api.meta["fast.txt"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.state[""] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady}, Extension: "txt"}
	p := New(api, WithClock(newFakeClock()))
	defer p.Close()

	p.SubmitQuery("slow")
	for api.count("meta") == 0 {
		time.Sleep(time.Millisecond)
	}
	p.SubmitQuery("fast.txt")
	v := waitFor(t, p, "fast load", done)
	close(gate)
	<-slowDone

	after := p.Snapshot()
	if after.Query != "fast.txt" || after.Token != v.Token {
		t.Fatalf("stale navigation changed the view: %+v", after)
	}
	if api.count("state") != 1 {
		t.Fatalf("stale navigation triggered a load")
	}
}

func TestGotoExternalLink(t *testing.T) {
	api := newFakeAPI()
	p := New(api, WithClock(newFakeClock()))
	defer p.Close()

	if got := p.Goto("https://example.com/doc"); got != "" {
		t.Fatalf("external link must not become a query, got %q", got)
	}
	v := p.Snapshot()
	if v.Mode != ModeIframe || v.ExternalLink != "https://example.com/doc" {
		t.Fatalf("unexpected view %+v", v)
	}
	if p.LoadSuppressed() || api.total() != 0 {
		t.Fatalf("external navigation must not hit the server")
	}
}

func TestGotoRelResolvesAgainstBasis(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["a/b/c.txt"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.meta["a/b/d.txt"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.meta["top"] = &liquer.Metadata{Status: liquer.StatusEvaluation}
	api.state["a/b"] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady}, Extension: "txt"}
	clock := newFakeClock()
	p := New(api, WithClock(clock))
	defer p.Close()

	p.SubmitQuery("a/b/c.txt")
	waitFor(t, p, "first load", done)

	if got := p.GotoRel("d.txt"); got != "a/b/d.txt" {
		t.Fatalf("expected a/b/d.txt, got %q", got)
	}
	waitFor(t, p, "second load", func(v View) bool { return v.Query == "a/b/d.txt" && v.Phase.Done() })

	if got := p.GotoRel("/top"); got != "top" {
		t.Fatalf("expected absolute link, got %q", got)
	}
	<-clock.called
}

func TestPollingStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["long"] = &liquer.Metadata{Status: liquer.StatusEvaluation}
	p := New(api, WithInterval(time.Millisecond))

	p.SubmitQuery("long")
	waitFor(t, p, "several polls", func(v View) bool { return v.Polls >= 3 })
	p.Close()

	n := api.count("meta")
	time.Sleep(10 * time.Millisecond)
	if api.count("meta") != n {
		t.Fatalf("polling continued after close")
	}
}

func TestQueriesStatusRefreshesWhileActive(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	clock := newFakeClock()
	p := New(api, WithClock(clock))

	p.QueriesStatusMode()
	<-clock.called
	v := p.Snapshot()
	if v.Mode != ModeQueriesStatus || len(v.QueriesStatus) != 1 {
		t.Fatalf("unexpected view %+v", v)
	}
	p.Close()
}

func TestCommandsAndCleanCacheAreShared(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	p := New(api, WithClock(newFakeClock()))

	p.LoadCommands()
	waitFor(t, p, "commands", func(v View) bool { return len(v.Commands) == 1 })
	p.CleanCache()
	waitFor(t, p, "clean", func(v View) bool { return v.Message == "Cache cleaned" })
	p.Close()

	if api.count("commands") != 1 || api.count("clean") != 1 {
		t.Fatalf("unexpected calls %v", api.calls)
	}
}

func TestFinishHookRunsOncePerNavigation(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["q.txt"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.state[""] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady}, Extension: "txt"}

	var mu sync.Mutex
	var finished []View
	p := New(api, WithClock(newFakeClock()), WithFinishHook(func(v View) {
		mu.Lock()
		finished = append(finished, v)
		mu.Unlock()
	}))

	p.SubmitQuery("q.txt")
	waitFor(t, p, "load", done)
	p.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(finished) != 1 || finished[0].Query != "q.txt" {
		t.Fatalf("expected one finish callback, got %d", len(finished))
	}
}

func TestSubmitAndPollFailuresStopWithoutRetry(t *testing.T) {
	netErr := errdef.New(errdef.CodeNetwork, "connection refused")
	parseErr := errdef.Wrap(errdef.CodeParse, context.DeadlineExceeded, "decode")
	cases := []struct {
		name     string
		op       string
		err      error
		run      func(*Poller, string)
		want     string
		metaHits int
	}{
		{"submit call", "submit", netErr, (*Poller).SubmitQuery, "API call error (submit query)", 0},
		{"submit json", "submit", parseErr, (*Poller).SubmitQuery, "Json error (submit query)", 0},
		{"remove call", "remove", netErr, (*Poller).RemoveQuery, "API call error (remove query)", 0},
		{"remove json", "remove", parseErr, (*Poller).RemoveQuery, "Json error (remove query)", 0},
		{"metadata call", "meta", netErr, (*Poller).SubmitQuery, "API call error (refresh metadata)", 1},
		{"metadata json", "meta", parseErr, (*Poller).SubmitQuery, "Json error (refresh metadata)", 1},
		{"view metadata", "meta", netErr, (*Poller).ViewQuery, "API call error (refresh metadata)", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)
			api := newFakeAPI()
			api.errs[tc.op] = tc.err
			clock := newFakeClock()
			p := New(api, WithClock(clock))

			tc.run(p, "a/b")
			v := waitFor(t, p, "failure", done)
			p.Close()

			if v.Phase != PhaseFailed || v.Status != StatusError || v.Message != tc.want {
				t.Fatalf("unexpected view phase %v status %q message %q", v.Phase, v.Status, v.Message)
			}
			if got := len(clock.recorded()); got != 0 {
				t.Fatalf("failure must not schedule a retry, got %d", got)
			}
			if got := api.count("meta"); got != tc.metaHits {
				t.Fatalf("expected %d metadata calls, got %d", tc.metaHits, got)
			}
			if api.count("state") != 0 {
				t.Fatalf("failure must not load state")
			}
		})
	}
}

func TestRemoveQueryFollowsReevaluation(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["a/b.txt"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.state["a"] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady}, Extension: "txt"}
	p := New(api, WithClock(newFakeClock()))
	defer p.Close()

	p.RemoveQuery("a/b.txt")
	v := waitFor(t, p, "reload", done)

	if v.Phase != PhaseLoaded || v.Query != "a/b.txt" {
		t.Fatalf("unexpected view %+v", v)
	}
	if api.count("remove") != 1 || api.count("submit") != 0 || api.count("state") != 1 {
		t.Fatalf("unexpected calls %v", api.calls)
	}
}

func TestViewQueryPollsWithoutSubmit(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["v.txt"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.state[""] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady}, Extension: "txt"}
	p := New(api, WithClock(newFakeClock()))
	defer p.Close()

	p.ViewQuery("v.txt")
	v := waitFor(t, p, "load", done)

	if v.Phase != PhaseLoaded || v.Mode != ModeIframe {
		t.Fatalf("unexpected view phase %v mode %q", v.Phase, v.Mode)
	}
	if api.count("submit") != 0 || api.count("remove") != 0 {
		t.Fatalf("view must not submit, calls %v", api.calls)
	}
	if api.count("meta") != 1 || api.count("state") != 1 {
		t.Fatalf("unexpected calls %v", api.calls)
	}
}

func TestSuppressedLoadAfterReadyFinishesNavigation(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["a/b"] = &liquer.Metadata{Status: liquer.StatusReady}

	var mu sync.Mutex
	finished := 0
	p := New(api, WithClock(newFakeClock()), WithFinishHook(func(View) {
		mu.Lock()
		finished++
		mu.Unlock()
	}))

	p.SuppressNextLoad()
	p.SubmitQuery("a/b")
	v := waitFor(t, p, "finish", done)
	p.Close()

	if v.Phase != PhaseLoaded {
		t.Fatalf("expected loaded, got %v", v.Phase)
	}
	if p.LoadSuppressed() {
		t.Fatalf("suppress flag was not cleared")
	}
	if api.count("state") != 0 {
		t.Fatalf("suppressed load fetched state")
	}
	mu.Lock()
	defer mu.Unlock()
	if finished != 1 {
		t.Fatalf("expected one finish callback, got %d", finished)
	}
}

func TestRootLoadClearsDerivedFields(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := newFakeAPI()
	api.meta["a/b/report.csv"] = &liquer.Metadata{Status: liquer.StatusReady}
	api.state["a/b"] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady}, Extension: "csv"}
	api.state[""] = &liquer.State{Metadata: liquer.Metadata{Status: liquer.StatusReady}}
	clock := newFakeClock()
	p := New(api, WithClock(clock))
	defer p.Close()

	p.SubmitQuery("a/b/report.csv")
	v := waitFor(t, p, "report", done)
	if v.QueryBasis != "a/b" {
		t.Fatalf("unexpected basis %q", v.QueryBasis)
	}

	p.Load("")
	v = waitFor(t, p, "root", func(v View) bool { return v.Query == "" && v.Phase.Done() })
	if v.QueryBasis != "" || v.Filename != "" || v.Extension != "" {
		t.Fatalf("root kept derived fields: basis %q filename %q extension %q", v.QueryBasis, v.Filename, v.Extension)
	}
	if got := p.GotoRel("x"); got != "x" {
		t.Fatalf("expected x relative to the root, got %q", got)
	}
	<-clock.called
}

func TestMetadataLogTail(t *testing.T) {
	var v View
	for i := range 7 {
		v.MetadataLog = append(v.MetadataLog, liquer.LogEntry{Kind: "info", Message: string(rune('a' + i))})
	}
	tail := v.MetadataLogTail(0)
	if len(tail) != logTailSize || tail[0].Message != "c" || tail[len(tail)-1].Message != "g" {
		t.Fatalf("unexpected default tail %#v", tail)
	}
	if got := v.MetadataLogTail(2); len(got) != 2 || got[0].Message != "f" {
		t.Fatalf("unexpected tail %#v", got)
	}
}
