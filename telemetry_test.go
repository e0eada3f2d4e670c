package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/telemetry/metrics"
)

type failingWorkItem struct{}

func (failingWorkItem) OperationType() string            { return "test.fail" }
func (failingWorkItem) Execute(ctx context.Context) error { return errors.New("boom") }

type captureSink struct{}

func (captureSink) EmitMetricEvent(line string, value float64, timestamp time.Time) {}

func newTestTelemetry(t *testing.T) *Telemetry {
	t.Helper()
	tel, err := New(Options{
		SourceName: "test",
		Recorder:   metrics.NewFallbackRecorder(captureSink{}),
	})
	require.NoError(t, err)
	return tel
}

func TestNewRequiresRecorder(t *testing.T) {
	_, err := New(Options{SourceName: "test"})
	assert.Error(t, err)
}

func TestStartOperationAndStopFlushesSpans(t *testing.T) {
	tel := newTestTelemetry(t)
	require.NoError(t, tel.Start(context.Background()))

	var dispatched []string
	_ = dispatched

	ctx, s := tel.StartOperation(context.Background(), "checkout")
	s.SetTag("customer", "abc")
	s.End()
	_ = ctx

	require.NoError(t, tel.Stop(context.Background(), time.Second))
	assert.Equal(t, int64(1), tel.Worker.Stats().Processed)
}

func TestDefaultInstanceDelegation(t *testing.T) {
	tel := newTestTelemetry(t)
	SetDefault(tel)
	defer SetDefault(nil)

	require.NoError(t, Start(context.Background()))
	_, s := StartOperation(context.Background(), "op")
	s.End()
	require.NoError(t, Stop(context.Background(), time.Second))
}

func TestHealthReflectsWorkerState(t *testing.T) {
	tel := newTestTelemetry(t)
	require.NoError(t, tel.Start(context.Background()))
	defer tel.Stop(context.Background(), time.Second)

	v := tel.Health.Check()
	assert.NotEmpty(t, v.Status.String())
}

// TestWorkerOutcomesFeedHealth confirms New wires the worker's per-item
// outcomes into the health checker's error-rate window, not just the
// worker's own Failed counter.
func TestWorkerOutcomesFeedHealth(t *testing.T) {
	tel := newTestTelemetry(t)
	require.NoError(t, tel.Start(context.Background()))
	defer tel.Stop(context.Background(), time.Second)

	for i := 0; i < 5; i++ {
		tel.Worker.TryEnqueue(failingWorkItem{})
	}

	require.Eventually(t, func() bool {
		return tel.Health.Check().ErrorRatePct > 0
	}, time.Second, 5*time.Millisecond)
}
