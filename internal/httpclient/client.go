package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/orest-d/liquer/internal/errdef"
	"github.com/orest-d/liquer/internal/telemetry"
)

type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
	ProxyURL           string
}

func DefaultOptions() Options {
	return Options{Timeout: 30 * time.Second, FollowRedirects: true}
}

type Client struct {
	opts        Options
	jar         http.CookieJar
	httpFactory func(Options) (*http.Client, error)
	mu          sync.Mutex
	http        *http.Client
	telemetry   telemetry.Instrumenter
}

func NewClient(opts Options) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{opts: opts, jar: jar, telemetry: telemetry.Noop()}
	c.httpFactory = c.buildHTTPClient
	return c
}

// SetHTTPFactory allows callers to override how http.Client instances are created.
// Passing nil restores the default factory.
func (c *Client) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	if factory == nil {
		factory = c.buildHTTPClient
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpFactory = factory
	c.http = nil
}

// SetTelemetry configures the instrumenter used to emit OpenTelemetry spans. Passing nil restores the no-op implementation.
func (c *Client) SetTelemetry(instr telemetry.Instrumenter) {
	if instr == nil {
		instr = telemetry.Noop()
	}
	c.telemetry = instr
}

type Response struct {
	Status       string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	EffectiveURL string
}

func (r *Response) ContentType() string {
	if r == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

// Call labels a request for tracing.
type Call struct {
	Op    string
	Query string
}

func (c *Client) client() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http != nil {
		return c.http, nil
	}
	if c.httpFactory == nil {
		return nil, errdef.New(errdef.CodeHTTP, "http client factory unavailable")
	}
	hc, err := c.httpFactory(c.opts)
	if err != nil {
		return nil, err
	}
	c.http = hc
	return hc, nil
}

// Get performs a GET and reads the whole body. Transport failures are
// reported as CodeNetwork; status codes are left for the caller to judge.
func (c *Client) Get(ctx context.Context, call Call, url string) (resp *Response, err error) {
	hc, err := c.client()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "build request")
	}

	instrumenter := c.telemetry
	if instrumenter == nil {
		instrumenter = telemetry.Noop()
	}
	spanCtx, span := instrumenter.Start(httpReq.Context(), telemetry.Call{
		Op:     call.Op,
		Query:  call.Query,
		Method: httpReq.Method,
		URL:    url,
	})
	httpReq = httpReq.WithContext(spanCtx)
	telemetry.Inject(spanCtx, httpReq.Header)

	defer func() {
		var out telemetry.Outcome
		if resp != nil {
			out.Status = resp.StatusCode
			out.Bytes = len(resp.Body)
		}
		out.Err = err
		span.End(out)
	}()

	start := time.Now()
	httpResp, err := hc.Do(httpReq)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeNetwork, err, "perform request")
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil && err == nil {
			err = errdef.Wrap(errdef.CodeNetwork, closeErr, "close response body")
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeNetwork, err, "read response body")
	}

	resp = &Response{
		Status:       httpResp.Status,
		StatusCode:   httpResp.StatusCode,
		Headers:      httpResp.Header.Clone(),
		Body:         body,
		Duration:     time.Since(start),
		EffectiveURL: effURL(httpReq, httpResp),
	}
	return resp, nil
}

func effURL(req *http.Request, resp *http.Response) string {
	if resp != nil && resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	if req != nil && req.URL != nil {
		return req.URL.String()
	}
	return ""
}
