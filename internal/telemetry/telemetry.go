package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/orest-d/liquer/internal/telemetry"

	attrOp    = attribute.Key("liquer.op")
	attrQuery = attribute.Key("liquer.query")
	attrBytes = attribute.Key("liquer.response_bytes")
	attrHost  = attribute.Key("http.host")
)

// Instrumenter opens one client span per liquer API call.
type Instrumenter interface {
	Start(ctx context.Context, call Call) (context.Context, Span)
	Shutdown(ctx context.Context) error
}

// Call identifies an API call: the liquer operation (submit, meta, state,
// ...), the query it concerns and the HTTP request made for it.
type Call struct {
	Op     string
	Query  string
	Method string
	URL    string
}

// Outcome is what the span records when the call ends.
type Outcome struct {
	Status int
	Bytes  int
	Err    error
}

type Span interface {
	End(Outcome)
}

type options struct {
	exporter   sdktrace.SpanExporter
	processors []sdktrace.SpanProcessor
}

type Option func(*options)

// WithSpanProcessor adds a processor; tests use it with a span recorder.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) {
		if p != nil {
			o.processors = append(o.processors, p)
		}
	}
}

// WithExporter replaces the OTLP exporter built from Config.
func WithExporter(e sdktrace.SpanExporter) Option {
	return func(o *options) {
		if e != nil {
			o.exporter = e
		}
	}
}

type tracer struct {
	tr       trace.Tracer
	provider *sdktrace.TracerProvider

	once sync.Once
	err  error
}

// New returns a Noop instrumenter unless an endpoint, exporter or processor
// is configured.
func New(cfg Config, opts ...Option) (Instrumenter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !cfg.Enabled() && o.exporter == nil && len(o.processors) == 0 {
		return Noop(), nil
	}

	res, err := resource.New(context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(serviceAttributes(cfg)...),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	if o.exporter == nil && cfg.Enabled() {
		if o.exporter, err = dialExporter(cfg); err != nil {
			return nil, err
		}
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if o.exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(o.exporter))
	}
	for _, p := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	return &tracer{tr: tp.Tracer(tracerName), provider: tp}, nil
}

func (t *tracer) Start(ctx context.Context, call Call) (context.Context, Span) {
	name := "liquer.request"
	if op := strings.TrimSpace(call.Op); op != "" {
		name = "liquer." + op
	}
	ctx, span := t.tr.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(callAttributes(call)...),
	)
	return ctx, callSpan{span: span}
}

// Shutdown flushes pending spans. Later calls return the first result.
func (t *tracer) Shutdown(ctx context.Context) error {
	t.once.Do(func() {
		t.err = t.provider.Shutdown(ctx)
	})
	return t.err
}

type callSpan struct {
	span trace.Span
}

func (s callSpan) End(out Outcome) {
	if out.Status > 0 {
		s.span.SetAttributes(semconv.HTTPStatusCodeKey.Int(out.Status))
	}
	if out.Bytes > 0 {
		s.span.SetAttributes(attrBytes.Int(out.Bytes))
	}
	switch {
	case out.Err != nil:
		s.span.RecordError(out.Err)
		s.span.SetStatus(codes.Error, out.Err.Error())
	case out.Status >= http.StatusBadRequest:
		s.span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", out.Status))
	default:
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// Inject writes the W3C trace context of ctx into h so the server can join
// the trace.
func Inject(ctx context.Context, h http.Header) {
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(h))
}

func Noop() Instrumenter { return noop{} }

type noop struct{}

func (noop) Start(ctx context.Context, _ Call) (context.Context, Span) { return ctx, noop{} }
func (noop) Shutdown(context.Context) error                           { return nil }
func (noop) End(Outcome)                                              {}

func dialExporter(cfg Config) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("telemetry endpoint is required")
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if cfg.Insecure {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	exp, err := otlptrace.New(ctx, otlptracegrpc.NewClient(grpcOpts...))
	if err != nil {
		return nil, fmt.Errorf("telemetry exporter %s: %w", endpoint, err)
	}
	return exp, nil
}

func serviceAttributes(cfg Config) []attribute.KeyValue {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	if v := strings.TrimSpace(cfg.Version); v != "" {
		attrs = append(attrs, semconv.ServiceVersion(v))
	}
	return attrs
}

func callAttributes(call Call) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 5)
	if call.Op != "" {
		attrs = append(attrs, attrOp.String(call.Op))
	}
	if call.Query != "" {
		attrs = append(attrs, attrQuery.String(call.Query))
	}
	if call.Method != "" {
		attrs = append(attrs, semconv.HTTPMethodKey.String(call.Method))
	}
	if call.URL != "" {
		attrs = append(attrs, semconv.HTTPURLKey.String(call.URL))
		if host := hostOf(call.URL); host != "" {
			attrs = append(attrs, attrHost.String(host))
		}
	}
	return attrs
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
