// Package telemetrytest is the mocktracer-equivalent test double: a
// Tracer that ships finished spans through its own Bounded Worker into
// an in-memory slice instead of a sink fan-out, grounded on the
// teacher's mocktracer package (itself referenced throughout
// ddtrace/tracer's own test suite as the way tests assert on span
// shape without a real backend).
package telemetrytest

import (
	"context"
	"sync"
	"time"

	"github.com/brightloom/telemetry/metrics"
	"github.com/brightloom/telemetry/sampler"
	"github.com/brightloom/telemetry/scope"
	"github.com/brightloom/telemetry/worker"
)

// defaultFlushTimeout bounds how long FinishedSpans waits for the
// in-memory worker to drain.
const defaultFlushTimeout = 2 * time.Second

// Tracer wraps a real scope.Tracer (so Begin/End semantics are
// identical to production) but dispatches finished spans into an
// in-memory slice instead of a sink fan-out.
type Tracer struct {
	*scope.Tracer

	worker *worker.BoundedWorker

	mu    sync.Mutex
	spans []scope.Span
}

// Option configures Start.
type Option func(*config)

type config struct {
	sampler  sampler.Sampler
	recorder metrics.Recorder
}

// WithSampler overrides the always-sample default.
func WithSampler(s sampler.Sampler) Option {
	return func(c *config) { c.sampler = s }
}

// WithRecorder overrides the default no-op-safe fallback recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *config) { c.recorder = r }
}

type noopEventSink struct{}

func (noopEventSink) EmitMetricEvent(string, float64, time.Time) {}

// Start constructs a Tracer ready for immediate use; its worker is
// started synchronously so FlushAsync-based test assertions observe
// dispatched spans promptly.
func Start(sourceName string, opts ...Option) (*Tracer, error) {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.sampler == nil {
		s, err := sampler.NewProbabilistic(1.0)
		if err != nil {
			return nil, err
		}
		cfg.sampler = s
	}
	if cfg.recorder == nil {
		cfg.recorder = metrics.NewFallbackRecorder(noopEventSink{})
	}

	w := worker.New(1024, 3, 0)
	w.Start()

	mt := &Tracer{worker: w}
	dispatch := func(span scope.Span) error {
		mt.mu.Lock()
		defer mt.mu.Unlock()
		mt.spans = append(mt.spans, span)
		return nil
	}

	tr, err := scope.NewTracer(sourceName, cfg.sampler, cfg.recorder, w, dispatch)
	if err != nil {
		return nil, err
	}
	mt.Tracer = tr
	return mt, nil
}

// Stop disposes the underlying worker.
func (mt *Tracer) Stop() error {
	return mt.worker.Dispose()
}

// FinishedSpans waits for the worker to drain, then returns every span
// recorded since the last Reset.
func (mt *Tracer) FinishedSpans(ctx context.Context) []scope.Span {
	_, _ = mt.worker.FlushAsync(ctx, defaultFlushTimeout)
	mt.mu.Lock()
	defer mt.mu.Unlock()
	out := make([]scope.Span, len(mt.spans))
	copy(out, mt.spans)
	return out
}

// Reset clears recorded spans.
func (mt *Tracer) Reset() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.spans = nil
}
