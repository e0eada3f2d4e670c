package scope

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/brightloom/telemetry/correlation"
	"github.com/brightloom/telemetry/internal/idgen"
	"github.com/brightloom/telemetry/metrics"
	"github.com/brightloom/telemetry/sampler"
	"github.com/brightloom/telemetry/spankind"
	"github.com/brightloom/telemetry/worker"
)

// Dispatcher hands a frozen Span off to whatever consumes it — in the
// full pipeline, a function that fans the span out to registered sinks.
// Kept as an injected func rather than an interface so the scope
// package has no compile-time dependency on the sink package.
type Dispatcher func(Span) error

// Tracer is the entry point that wires together the pieces an
// OperationScope needs: a sampler decision, a place to record
// duration/error metrics, and a worker queue to ship frozen spans to.
type Tracer struct {
	sourceName string
	sampler    sampler.Sampler
	recorder   metrics.Recorder
	worker     *worker.BoundedWorker
	dispatch   Dispatcher

	captureMode   CaptureMode
	captureLimits CaptureLimits
	piiDetector   PIIDetector

	duration metrics.Float64Histogram
	errors   metrics.Counter

	now func() time.Time
}

// TracerOption configures optional Tracer behavior.
type TracerOption func(*Tracer)

// WithParameterCapture enables parameter snapshotting on Begin.
func WithParameterCapture(mode CaptureMode, limits CaptureLimits, detector PIIDetector) TracerOption {
	return func(t *Tracer) {
		t.captureMode = mode
		t.captureLimits = limits
		t.piiDetector = detector
	}
}

// NewTracer constructs a Tracer, registering the two instruments every
// OperationScope.End reports into.
func NewTracer(sourceName string, s sampler.Sampler, rec metrics.Recorder, w *worker.BoundedWorker, dispatch Dispatcher, opts ...TracerOption) (*Tracer, error) {
	duration, err := rec.CreateFloat64Histogram("telemetry.operation.duration", metrics.WithUnit("ms"), metrics.WithDescription("operation duration in milliseconds"))
	if err != nil {
		return nil, err
	}
	errCounter, err := rec.CreateCounter("telemetry.operation.errors", metrics.WithDescription("count of failed operations"))
	if err != nil {
		return nil, err
	}
	t := &Tracer{
		sourceName: sourceName,
		sampler:    s,
		recorder:   rec,
		worker:     w,
		dispatch:   dispatch,
		duration:   duration,
		errors:     errCounter,
		now:        time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// BeginOption configures a single Begin call.
type BeginOption func(*beginConfig)

type beginConfig struct {
	kind   spankind.Kind
	tags   []Tag
	params map[string]any
}

func WithKind(k spankind.Kind) BeginOption {
	return func(c *beginConfig) { c.kind = k }
}

func WithTags(tags ...Tag) BeginOption {
	return func(c *beginConfig) { c.tags = append(c.tags, tags...) }
}

func WithCapturedParams(params map[string]any) BeginOption {
	return func(c *beginConfig) { c.params = params }
}

// Begin starts an OperationScope named name. If a parent scope is
// present on ctx, the new span shares its TraceId and is parented to
// it; otherwise a new trace is started. The returned context carries
// both the new ambient correlation id (materialized if absent) and the
// new span as parent for any nested Begin calls — the caller's own ctx
// variable is left untouched, so "restoring the prior ambient scope"
// falls out of normal Go context scoping rather than needing an
// explicit step in End.
func (t *Tracer) Begin(ctx context.Context, name string, opts ...BeginOption) (context.Context, *Scope) {
	cfg := beginConfig{kind: spankind.Internal}
	for _, o := range opts {
		o(&cfg)
	}

	correlationID, ctx := correlation.Current(ctx)

	var traceID trace.TraceID
	var parentSpanID trace.SpanID
	if parent, ok := ScopeFromContext(ctx); ok {
		traceID = parent.span.TraceID
		parentSpanID = parent.span.SpanID
	} else {
		traceID = idgen.NewTraceID()
	}

	samplerTags := make([]sampler.Tag, 0, len(cfg.tags))
	for _, tg := range cfg.tags {
		samplerTags = append(samplerTags, sampler.Tag{Key: tg.Key, Value: tg.Value})
	}
	decision := t.sampler.ShouldSample(sampler.Context{
		TraceID:        traceID,
		ActivitySource: t.sourceName,
		OperationName:  name,
		Kind:           cfg.kind,
		Tags:           samplerTags,
	})
	recording := decision.Decision == sampler.RecordAndSample

	span := Span{
		SpanID:        idgen.NewSpanID(),
		TraceID:       traceID,
		ParentSpanID:  parentSpanID,
		SourceName:    t.sourceName,
		OperationName: name,
		Kind:          cfg.kind,
		StartTimeUTC:  t.now().UTC(),
		Tags:          append([]Tag(nil), cfg.tags...),
	}

	s := &Scope{
		tracer:              t,
		span:                span,
		parentCorrelationID: correlationID,
		startTimestamp:      t.now(),
		recording:           recording,
	}
	if t.captureMode != CaptureNone && cfg.params != nil {
		s.capturedParams = CaptureParameters(t.captureMode, t.captureLimits, t.piiDetector, cfg.params)
	}
	s.state.Store(int32(stateStarted))

	return ContextWithScope(ctx, s), s
}
