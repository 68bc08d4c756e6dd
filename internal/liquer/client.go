// Package liquer talks to a liquer query-execution server.
package liquer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/orest-d/liquer/internal/errdef"
	"github.com/orest-d/liquer/internal/httpclient"
	"github.com/orest-d/liquer/internal/query"
)

// Endpoints holds the URL prefixes of the server API. Each prefix is joined
// with a query by plain concatenation.
type Endpoints struct {
	Submit string `koanf:"submit"`
	Remove string `koanf:"remove"`
	Meta   string `koanf:"meta"`
	Q      string `koanf:"q"`
	Clean  string `koanf:"clean"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Submit: "/liquer/submit/",
		Remove: "/liquer/api/cache/remove/",
		Meta:   "/liquer/api/cache/meta/",
		Q:      "/liquer/q/",
		Clean:  "/liquer/api/cache/clean",
	}
}

func (e Endpoints) withDefaults() Endpoints {
	def := DefaultEndpoints()
	if e.Submit == "" {
		e.Submit = def.Submit
	}
	if e.Remove == "" {
		e.Remove = def.Remove
	}
	if e.Meta == "" {
		e.Meta = def.Meta
	}
	if e.Q == "" {
		e.Q = def.Q
	}
	if e.Clean == "" {
		e.Clean = def.Clean
	}
	return e
}

const (
	commandsPath      = "ns-meta/flat_commands/commands.json"
	queriesStatusPath = "ns-meta/queries_status/queries_status.json"
	statePath         = "state/state.json"
)

type Client struct {
	base      string
	endpoints Endpoints
	http      *httpclient.Client
	logger    *zap.Logger
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(base string, endpoints Endpoints, hc *httpclient.Client, opts ...Option) *Client {
	if hc == nil {
		hc = httpclient.NewClient(httpclient.DefaultOptions())
	}
	c := &Client{
		base:      strings.TrimRight(base, "/"),
		endpoints: endpoints.withDefaults(),
		http:      hc,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the absolute address of a content path under the q prefix.
func (c *Client) URL(path string) string {
	return c.base + c.endpoints.Q + path
}

func (c *Client) Submit(ctx context.Context, q string) (*Metadata, error) {
	return c.metadataCall(ctx, "submit", q, c.base+c.endpoints.Submit+q)
}

func (c *Client) Remove(ctx context.Context, q string) (*Metadata, error) {
	return c.metadataCall(ctx, "remove", q, c.base+c.endpoints.Remove+q)
}

// Metadata returns the current metadata of q. A null body is not an error;
// it yields UndefinedMetadata.
func (c *Client) Metadata(ctx context.Context, q string) (*Metadata, error) {
	return c.metadataCall(ctx, "meta", q, c.base+c.endpoints.Meta+q)
}

func (c *Client) metadataCall(ctx context.Context, op, q, target string) (*Metadata, error) {
	resp, err := c.get(ctx, op, q, target)
	if err != nil {
		return nil, err
	}
	var meta *Metadata
	if err := decodeJSON(resp.Body, &meta); err != nil {
		return nil, err
	}
	if meta == nil {
		return UndefinedMetadata(), nil
	}
	if meta.Log == nil {
		meta.Log = []LogEntry{}
	}
	return meta, nil
}

// State fetches the state descriptor of basis; an empty basis addresses the
// server root.
func (c *Client) State(ctx context.Context, basis string) (*State, error) {
	path := query.Join(basis, statePath)
	resp, err := c.get(ctx, "state", basis, c.URL(path))
	if err != nil {
		return nil, err
	}
	var st State
	if err := decodeJSON(resp.Body, &st); err != nil {
		return nil, err
	}
	st.Raw = append(json.RawMessage(nil), resp.Body...)
	return &st, nil
}

// Payload is a fetched result body.
type Payload struct {
	Path        string
	URL         string
	ContentType string
	Body        []byte
}

func (c *Client) Fetch(ctx context.Context, path string) (*Payload, error) {
	target := c.URL(path)
	resp, err := c.get(ctx, "data", path, target)
	if err != nil {
		return nil, err
	}
	return &Payload{Path: path, URL: target, ContentType: resp.ContentType(), Body: resp.Body}, nil
}

// FetchJSON fetches path and decodes it into out.
func (c *Client) FetchJSON(ctx context.Context, path string, out any) (*Payload, error) {
	payload, err := c.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(payload.Body, out); err != nil {
		return payload, err
	}
	return payload, nil
}

func (c *Client) Commands(ctx context.Context) ([]Command, error) {
	var cmds []Command
	if _, err := c.FetchJSON(ctx, commandsPath, &cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

func (c *Client) QueriesStatus(ctx context.Context) ([]QueryStatus, error) {
	var rows []QueryStatus
	if _, err := c.FetchJSON(ctx, queriesStatusPath, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CleanResult is the server reply to a cache clean.
type CleanResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) CleanCache(ctx context.Context) (*CleanResult, error) {
	resp, err := c.get(ctx, "clean", "", c.base+c.endpoints.Clean)
	if err != nil {
		return nil, err
	}
	var out CleanResult
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return &out, nil
	}
	if err := decodeJSON(resp.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, op, q, target string) (*httpclient.Response, error) {
	if _, err := url.Parse(target); err != nil {
		return nil, errdef.Wrap(errdef.CodeConfig, err, "invalid url %q", target)
	}
	c.logger.Debug("liquer api call", zap.String("op", op), zap.String("url", target))
	resp, err := c.http.Get(ctx, httpclient.Call{Op: op, Query: q}, target)
	if err != nil {
		c.logger.Warn("liquer api call failed", zap.String("op", op), zap.Error(err))
		return nil, err
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("liquer api status",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode))
		return nil, errdef.WithBody(
			errdef.New(errdef.CodeHTTP, "unexpected status %s", resp.Status),
			resp.Body,
		)
	}
	return resp, nil
}

func decodeJSON(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return errdef.WithBody(errdef.Wrap(errdef.CodeParse, err, "decode json"), body)
	}
	return nil
}
