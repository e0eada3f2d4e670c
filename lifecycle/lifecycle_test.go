package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/telemetry/sink"
	"github.com/brightloom/telemetry/worker"
)

func TestStartupIsIdempotentAndRunsSteps(t *testing.T) {
	w := worker.New(16, 3, time.Millisecond)
	m := NewManager(w, nil, nil)

	var calls int
	step := func(ctx context.Context) error { calls++; return nil }

	require.NoError(t, m.Startup(context.Background(), step))
	require.NoError(t, m.Startup(context.Background(), step))

	assert.Equal(t, 1, calls)
	t.Cleanup(func() { _ = m.Shutdown(context.Background(), time.Second) })
}

func TestStartupPropagatesStepFailure(t *testing.T) {
	w := worker.New(16, 3, time.Millisecond)
	m := NewManager(w, nil, nil)

	failing := func(ctx context.Context) error { return errors.New("config load failed") }
	err := m.Startup(context.Background(), failing)
	assert.Error(t, err)
}

func TestShutdownIsIdempotent(t *testing.T) {
	w := worker.New(16, 3, time.Millisecond)
	m := NewManager(w, sink.NewFanOut(), nil)
	require.NoError(t, m.Startup(context.Background()))

	require.NoError(t, m.Shutdown(context.Background(), time.Second))
	require.NoError(t, m.Shutdown(context.Background(), time.Second))
}
