// Package telemetry is the facade: it wires together every
// subsystem package into one running pipeline and exposes the
// package-level Start/Stop/StartOperation convenience functions that
// mirror the teacher's global tracer.Start()/tracer.StartSpanFromContext
// pattern (ddtrace/tracer), generalized from a single global tracer to
// an explicit *Telemetry instance that callers may also construct and
// hold themselves instead of using the package-level default.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/brightloom/telemetry/exception"
	"github.com/brightloom/telemetry/health"
	"github.com/brightloom/telemetry/internal/errs"
	"github.com/brightloom/telemetry/lifecycle"
	"github.com/brightloom/telemetry/metrics"
	"github.com/brightloom/telemetry/sampler"
	"github.com/brightloom/telemetry/scope"
	"github.com/brightloom/telemetry/sink"
	"github.com/brightloom/telemetry/worker"
)

// Options configures a Telemetry instance end to end.
type Options struct {
	SourceName         string
	Sampler            sampler.Sampler // defaults to an always-sample Probabilistic(1)
	Recorder           metrics.Recorder
	WorkerCapacity     int
	MaxRestartAttempts int
	BaseRestartDelay   time.Duration
	Sinks              []sink.Sink
	ParameterCapture   scope.CaptureMode
	CaptureLimits      scope.CaptureLimits
	PIIDetector        scope.PIIDetector
	ExceptionRatePerSec float64
	ExcludedExceptions map[string]bool
	HealthWindowSize   int
	HealthThresholds   health.Thresholds
}

func (o *Options) setDefaults() error {
	if o.SourceName == "" {
		o.SourceName = "telemetry"
	}
	if o.Sampler == nil {
		s, err := sampler.NewProbabilistic(1.0)
		if err != nil {
			return err
		}
		o.Sampler = s
	}
	if o.Recorder == nil {
		return errs.New(errs.InvalidArgument, "telemetry: a metrics.Recorder is required")
	}
	if o.WorkerCapacity <= 0 {
		o.WorkerCapacity = 10000
	}
	if o.MaxRestartAttempts <= 0 {
		o.MaxRestartAttempts = 3
	}
	if o.BaseRestartDelay <= 0 {
		o.BaseRestartDelay = 100 * time.Millisecond
	}
	if o.HealthWindowSize <= 0 {
		o.HealthWindowSize = 200
	}
	if o.HealthThresholds == (health.Thresholds{}) {
		o.HealthThresholds = health.DefaultThresholds
	}
	return nil
}

// Telemetry is one fully-wired pipeline instance: sampler, recorder,
// bounded worker, sink fan-out, tracer, exception recording, health
// view and lifecycle orchestration.
type Telemetry struct {
	Tracer     *scope.Tracer
	Recorder   metrics.Recorder
	Worker     *worker.BoundedWorker
	Sampler    sampler.Sampler
	FanOut     *sink.FanOut
	Lifecycle  *lifecycle.Manager
	Exceptions *exception.Aggregator
	FirstChance *exception.FirstChanceHook
	Health     *health.Checker
}

// New wires a Telemetry instance from opts. The worker is constructed
// but not started — call Start to begin processing.
func New(opts Options) (*Telemetry, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}

	w := worker.New(opts.WorkerCapacity, opts.MaxRestartAttempts, opts.BaseRestartDelay)
	fanOut := sink.NewFanOut(opts.Sinks...)

	dispatch := func(span scope.Span) error {
		return fanOut.Dispatch(sink.Record{Kind: sink.KindSpan, Span: &span})
	}

	tracerOpts := []scope.TracerOption{}
	if opts.ParameterCapture != scope.CaptureNone {
		limits := opts.CaptureLimits
		if limits.MaxItems <= 0 {
			limits = scope.DefaultCaptureLimits
		}
		tracerOpts = append(tracerOpts, scope.WithParameterCapture(opts.ParameterCapture, limits, opts.PIIDetector))
	}

	tracer, err := scope.NewTracer(opts.SourceName, opts.Sampler, opts.Recorder, w, dispatch, tracerOpts...)
	if err != nil {
		return nil, err
	}

	agg := exception.NewAggregator()
	hook := exception.NewFirstChanceHook(agg, opts.ExceptionRatePerSec, opts.ExcludedExceptions)

	checker := health.NewChecker(w, currentRateFunc(opts.Sampler), opts.HealthWindowSize, opts.HealthThresholds)
	w.SetOutcomeObserver(checker.Observe)

	return &Telemetry{
		Tracer:      tracer,
		Recorder:    opts.Recorder,
		Worker:      w,
		Sampler:     opts.Sampler,
		FanOut:      fanOut,
		Lifecycle:   lifecycle.NewManager(w, fanOut, hook),
		Exceptions:  agg,
		FirstChance: hook,
		Health:      checker,
	}, nil
}

func currentRateFunc(s sampler.Sampler) func() float64 {
	type rateReporter interface{ Rate() float64 }
	if r, ok := s.(rateReporter); ok {
		return r.Rate
	}
	return func() float64 { return -1 }
}

// Start begins processing: runs extraSteps (config load, etc.)
// concurrently, then starts the worker.
func (t *Telemetry) Start(ctx context.Context, extraSteps ...lifecycle.StartupStep) error {
	return t.Lifecycle.Startup(ctx, extraSteps...)
}

// Stop flushes and tears the pipeline down, bounded by timeout (zero
// uses lifecycle.DefaultFlushTimeout).
func (t *Telemetry) Stop(ctx context.Context, timeout time.Duration) error {
	return t.Lifecycle.Shutdown(ctx, timeout)
}

// StartOperation begins an OperationScope against this instance's
// tracer — the per-call convenience wrapper most callers use directly.
func (t *Telemetry) StartOperation(ctx context.Context, name string, opts ...scope.BeginOption) (context.Context, *scope.Scope) {
	return t.Tracer.Begin(ctx, name, opts...)
}

var (
	defaultMu sync.RWMutex
	defaultT  *Telemetry
)

// SetDefault installs t as the package-level default instance used by
// Start/Stop/StartOperation.
func SetDefault(t *Telemetry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultT = t
}

// Default returns the package-level default instance, or nil if none
// has been installed.
func Default() *Telemetry {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultT
}

// Start starts the default instance.
func Start(ctx context.Context, extraSteps ...lifecycle.StartupStep) error {
	t := Default()
	if t == nil {
		return errs.New(errs.InvalidArgument, "telemetry: no default instance installed; call SetDefault first")
	}
	return t.Start(ctx, extraSteps...)
}

// Stop stops the default instance.
func Stop(ctx context.Context, timeout time.Duration) error {
	t := Default()
	if t == nil {
		return nil
	}
	return t.Stop(ctx, timeout)
}

// StartOperation begins an OperationScope against the default instance.
func StartOperation(ctx context.Context, name string, opts ...scope.BeginOption) (context.Context, *scope.Scope) {
	t := Default()
	if t == nil {
		panic("telemetry: no default instance installed; call SetDefault first")
	}
	return t.StartOperation(ctx, name, opts...)
}
