// Package lifecycle implements the Lifecycle Manager: startup wires
// together the Bounded Worker, registered sinks, loaded configuration
// and the first-chance exception hook; shutdown flushes the worker,
// closes gauges, flushes sinks in reverse registration order, then
// disposes the worker. Sinks are flushed but not disposed: the Sink
// contract has no dispose step. Both phases are idempotent and
// shutdown may also be triggered by a process-exit signal.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/brightloom/telemetry/exception"
	"github.com/brightloom/telemetry/internal/log"
	"github.com/brightloom/telemetry/metrics"
	"github.com/brightloom/telemetry/sink"
	"github.com/brightloom/telemetry/worker"
)

// DefaultFlushTimeout is how long Shutdown waits for the worker to
// drain before giving up.
const DefaultFlushTimeout = 5 * time.Second

// StartupStep is one independent unit of startup work (sink flush
// warmup, config load, hook install, ...). Steps run concurrently; the
// first failure cancels the rest via the errgroup's shared context.
type StartupStep func(ctx context.Context) error

// Manager owns process-wide telemetry startup/shutdown ordering.
type Manager struct {
	worker *worker.BoundedWorker
	fanout *sink.FanOut
	hook   *exception.FirstChanceHook
	gauges []metrics.GaugeHandle

	mu       sync.Mutex
	started  atomic.Bool
	stopped  atomic.Bool
	signalCh chan os.Signal
}

// NewManager wires a Manager around an already-constructed worker and
// sink fan-out. hook may be nil if first-chance recording is disabled.
func NewManager(w *worker.BoundedWorker, fanout *sink.FanOut, hook *exception.FirstChanceHook) *Manager {
	return &Manager{worker: w, fanout: fanout, hook: hook}
}

// RegisterGauge tracks a gauge handle so Shutdown closes it alongside
// everything else.
func (m *Manager) RegisterGauge(h metrics.GaugeHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges = append(m.gauges, h)
}

// Startup runs extraSteps concurrently (config load, hook install,
// anything else independent), then starts the worker. Idempotent: a
// second call is a no-op.
func (m *Manager) Startup(ctx context.Context, extraSteps ...StartupStep) error {
	if !m.started.CompareAndSwap(false, true) {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, step := range extraSteps {
		step := step
		g.Go(func() error { return step(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m.worker.Start()
	log.Info("telemetry lifecycle manager started")
	return nil
}

// InstallSignalHandler arranges for Shutdown to run on SIGINT/SIGTERM,
// with timeout as the flush deadline. Returns a func to stop listening
// (e.g. in tests).
func (m *Manager) InstallSignalHandler(timeout time.Duration) func() {
	m.signalCh = make(chan os.Signal, 1)
	signal.Notify(m.signalCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-m.signalCh:
			if err := m.Shutdown(context.Background(), timeout); err != nil {
				log.Error("telemetry shutdown on signal failed: %v", err)
			}
		case <-done:
		}
	}()
	return func() {
		close(done)
		signal.Stop(m.signalCh)
	}
}

// Shutdown flushes the worker (bounded by timeout), stops gauge
// timers, flushes sinks in reverse registration order, then disposes
// the worker. Sinks themselves are not disposed. Idempotent.
func (m *Manager) Shutdown(ctx context.Context, timeout time.Duration) error {
	if !m.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultFlushTimeout
	}

	var result error

	flushCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := m.worker.FlushAsync(flushCtx, timeout); err != nil {
		result = multierror.Append(result, err)
	}

	m.mu.Lock()
	gauges := m.gauges
	m.gauges = nil
	m.mu.Unlock()
	for _, g := range gauges {
		if err := g.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if m.fanout != nil {
		if err := m.fanout.Flush(ctx, timeout); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := m.worker.Dispose(); err != nil {
		result = multierror.Append(result, err)
	}

	log.Info("telemetry lifecycle manager shut down")
	return result
}
