package scope

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/telemetry/metrics"
	"github.com/brightloom/telemetry/sampler"
	"github.com/brightloom/telemetry/spankind"
	"github.com/brightloom/telemetry/worker"
)

type captureSink struct {
	mu     sync.Mutex
	events []string
}

func (c *captureSink) EmitMetricEvent(line string, value float64, timestamp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, line)
}

func newTestTracer(t *testing.T, rate float64) (*Tracer, *worker.BoundedWorker, *[]Span) {
	t.Helper()
	s, err := sampler.NewProbabilistic(rate)
	require.NoError(t, err)

	rec := metrics.NewFallbackRecorder(&captureSink{})
	w := worker.New(64, 3, time.Millisecond)
	w.Start()
	t.Cleanup(func() { _ = w.Dispose() })

	var mu sync.Mutex
	var dispatched []Span
	dispatch := func(sp Span) error {
		mu.Lock()
		defer mu.Unlock()
		dispatched = append(dispatched, sp)
		return nil
	}

	tr, err := NewTracer("testsource", s, rec, w, dispatch)
	require.NoError(t, err)
	return tr, w, &dispatched
}

func TestBeginEndProducesRecordingSpan(t *testing.T) {
	tr, w, dispatched := newTestTracer(t, 1.0)
	ctx, s := tr.Begin(context.Background(), "do-thing", WithKind(spankind.Server))
	s.SetTag("k", "v")
	s.End()

	_, err := w.FlushAsync(context.Background(), time.Second)
	require.NoError(t, err)

	require.Len(t, *dispatched, 1)
	got := (*dispatched)[0]
	assert.Equal(t, "do-thing", got.OperationName)
	assert.Equal(t, StatusOk, got.StatusCode)
	assert.GreaterOrEqual(t, got.Duration, time.Duration(0))
	assert.Equal(t, spankind.Server, got.Kind)
	_ = ctx
}

func TestDroppedScopeNeverDispatches(t *testing.T) {
	tr, w, dispatched := newTestTracer(t, 0.0)
	_, s := tr.Begin(context.Background(), "skip-me")
	s.End()

	_, err := w.FlushAsync(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Empty(t, *dispatched)
}

func TestNestedScopeSharesTraceID(t *testing.T) {
	tr, _, _ := newTestTracer(t, 1.0)
	ctx, parent := tr.Begin(context.Background(), "parent")
	childCtx, child := tr.Begin(ctx, "child")
	defer child.End()
	defer parent.End()

	assert.Equal(t, parent.span.TraceID, child.span.TraceID)
	assert.Equal(t, parent.span.SpanID, child.span.ParentSpanID)
	_ = childCtx
}

func TestMarkFailedSetsErrorStatus(t *testing.T) {
	tr, w, dispatched := newTestTracer(t, 1.0)
	_, s := tr.Begin(context.Background(), "will-fail")
	s.MarkFailed("boom")
	s.End()

	_, err := w.FlushAsync(context.Background(), time.Second)
	require.NoError(t, err)
	require.Len(t, *dispatched, 1)
	assert.Equal(t, StatusError, (*dispatched)[0].StatusCode)
	assert.Equal(t, "boom", (*dispatched)[0].StatusDesc)
}

func TestRecordExceptionMarksFailedAndAddsEvent(t *testing.T) {
	tr, w, dispatched := newTestTracer(t, 1.0)
	_, s := tr.Begin(context.Background(), "throws")
	s.RecordException(errors.New("kaboom"))
	s.End()

	_, err := w.FlushAsync(context.Background(), time.Second)
	require.NoError(t, err)
	require.Len(t, *dispatched, 1)
	got := (*dispatched)[0]
	assert.Equal(t, StatusError, got.StatusCode)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "exception", got.Events[0].Name)
}

func TestEndIsIdempotent(t *testing.T) {
	tr, w, dispatched := newTestTracer(t, 1.0)
	_, s := tr.Begin(context.Background(), "once")
	s.End()
	s.End()
	s.SetTag("late", "ignored")

	_, err := w.FlushAsync(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Len(t, *dispatched, 1)
}
