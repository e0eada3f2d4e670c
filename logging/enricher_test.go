package logging

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/telemetry/correlation"
	"github.com/brightloom/telemetry/metrics"
	"github.com/brightloom/telemetry/sampler"
	"github.com/brightloom/telemetry/scope"
	"github.com/brightloom/telemetry/worker"
)

type nullSink struct{}

func (nullSink) EmitMetricEvent(line string, value float64, timestamp time.Time) {}

func TestFireAddsCorrelationID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	contextHook := &ContextHook{}
	logger.AddHook(contextHook)

	ctx, err := correlation.BeginScope(context.Background(), "abc-123")
	require.NoError(t, err)

	entry := logrus.NewEntry(logger)
	entry.Context = ctx
	require.NoError(t, contextHook.Fire(entry))
	assert.Equal(t, "abc-123", entry.Data["correlation_id"])
	_ = hook
}

func TestFireAddsTraceAndSpanID(t *testing.T) {
	s, err := sampler.NewProbabilistic(1.0)
	require.NoError(t, err)
	rec := metrics.NewFallbackRecorder(nullSink{})
	w := worker.New(16, 3, time.Millisecond)
	tr, err := scope.NewTracer("test", s, rec, w, func(scope.Span) error { return nil })
	require.NoError(t, err)

	ctx, sc := tr.Begin(context.Background(), "op")
	defer sc.End()

	contextHook := &ContextHook{}
	entry := logrus.NewEntry(logrus.New())
	entry.Context = ctx
	require.NoError(t, contextHook.Fire(entry))

	assert.Equal(t, sc.TraceID().String(), entry.Data["trace_id"])
	assert.Equal(t, sc.SpanID().String(), entry.Data["span_id"])
}

func TestFireLeavesEntryUntouchedWithoutContext(t *testing.T) {
	contextHook := &ContextHook{}
	entry := logrus.NewEntry(logrus.New())
	require.NoError(t, contextHook.Fire(entry))
	assert.NotContains(t, entry.Data, "correlation_id")
}
