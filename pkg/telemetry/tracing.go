package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/nav/pkg/router"
)

// Default tracer name.
const defaultTracerName = "nav"

// TracingConfig configures the OpenTelemetry collector.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "nav").
	TracerName string

	// Parent is the context navigation spans are started in.
	// Default: context.Background()
	Parent context.Context

	// AttributeExtractor adds custom attributes to each navigation span.
	AttributeExtractor func(router.NavigationStart) []attribute.KeyValue
}

// TracingOption configures the OpenTelemetry collector.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithParentContext sets the context navigation spans are children of.
func WithParentContext(ctx context.Context) TracingOption {
	return func(c *TracingConfig) {
		c.Parent = ctx
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(router.NavigationStart) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing records one span per navigation, with a span event per pipeline
// stage. The tracer comes from the global provider; configure it with
// otel.SetTracerProvider before creating the collector.
type Tracing struct {
	config TracingConfig
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[int64]trace.Span
}

// NewTracing creates the collector.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Parent == nil {
		config.Parent = context.Background()
	}
	return &Tracing{
		config: config,
		tracer: otel.Tracer(config.TracerName),
		spans:  make(map[int64]trace.Span),
	}
}

// Attach subscribes t to r and returns the unsubscribe function.
func (t *Tracing) Attach(r *router.Router) func() {
	return r.Subscribe(t.Observe)
}

// InFlight returns the number of open navigation spans.
func (t *Tracing) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// Observe records one event.
func (t *Tracing) Observe(e router.Event) {
	switch ev := e.(type) {
	case router.NavigationStart:
		attrs := []attribute.KeyValue{
			attribute.Int64("nav.id", ev.ID),
			attribute.String("nav.url", ev.URL),
			attribute.String("nav.trigger", ev.Trigger),
		}
		if t.config.AttributeExtractor != nil {
			attrs = append(attrs, t.config.AttributeExtractor(ev)...)
		}
		_, span := t.tracer.Start(t.config.Parent, "navigation",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		t.mu.Lock()
		t.spans[ev.ID] = span
		t.mu.Unlock()

	case router.RoutesRecognized:
		t.event(ev.ID, "routes_recognized", attribute.String("nav.url_after_redirects", ev.URLAfterRedirects))
	case router.GuardsCheckStart:
		t.event(ev.ID, "guards_check_start")
	case router.GuardsCheckEnd:
		t.event(ev.ID, "guards_check_end", attribute.Bool("nav.should_activate", ev.ShouldActivate))
	case router.ResolveStart:
		t.event(ev.ID, "resolve_start")
	case router.ResolveEnd:
		t.event(ev.ID, "resolve_end")

	case router.NavigationEnd:
		if span := t.take(ev.ID); span != nil {
			span.SetAttributes(attribute.String("nav.url_after_redirects", ev.URLAfterRedirects))
			span.SetStatus(codes.Ok, "")
			span.End()
		}
	case router.NavigationCancel:
		if span := t.take(ev.ID); span != nil {
			span.SetAttributes(attribute.Bool("nav.canceled", true))
			span.AddEvent("canceled", trace.WithAttributes(attribute.String("nav.reason", ev.Reason)))
			span.End()
		}
	case router.NavigationError:
		if span := t.take(ev.ID); span != nil {
			span.RecordError(ev.Err)
			span.SetStatus(codes.Error, ev.Err.Error())
			span.End()
		}
	}
}

func (t *Tracing) event(id int64, name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	span := t.spans[id]
	t.mu.Unlock()
	if span != nil {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func (t *Tracing) take(id int64) trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := t.spans[id]
	delete(t.spans, id)
	return span
}
