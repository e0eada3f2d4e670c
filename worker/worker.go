// Package worker implements the Bounded Worker: a single-reader,
// multi-writer bounded queue of WorkItems with drop-oldest backpressure,
// crash-resilient restart with exponential backoff, a circuit breaker,
// and a drain-with-timeout flush protocol.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/eapache/queue/v2"
	"go.uber.org/atomic"

	"github.com/brightloom/telemetry/internal/errs"
	"github.com/brightloom/telemetry/internal/log"
)

// WorkItem is the unit the worker transports: a span record, a
// measurement, or a structured event, tagged with an OperationType used
// to aggregate drop-warning logging.
type WorkItem interface {
	OperationType() string
	Execute(ctx context.Context) error
}

// FlushResult is returned by FlushAsync.
type FlushResult struct {
	Success        bool
	ItemsFlushed   int64
	ItemsRemaining int
	TimedOut       bool
}

// Stats is a read-only snapshot of the worker's counters, consumed by
// the health package.
type Stats struct {
	QueueDepth  int
	Processed   int64
	Dropped     int64
	Failed      int64
	Restart     int64
	CircuitOpen bool
}

// GraceDisposeTimeout bounds how long Dispose waits for the processing
// goroutine to exit before logging and returning anyway.
const GraceDisposeTimeout = 5 * time.Second

// BoundedWorker owns the single background reader. All exported methods
// are safe for concurrent use by any number of producer goroutines.
type BoundedWorker struct {
	capacity           int
	maxRestartAttempts int
	baseDelay          time.Duration

	mu sync.Mutex
	q  *queue.Queue[WorkItem]

	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	closed      atomic.Bool
	circuitOpen atomic.Bool
	flushing    atomic.Bool
	started     atomic.Bool

	processed atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
	restart   atomic.Int64

	warnedMu sync.Mutex
	warned   map[string]bool

	// loopHook, when non-nil, is invoked once per drain cycle before
	// items are processed. It exists so tests can inject a loop-level
	// failure (as opposed to a per-item failure) to exercise the
	// restart/backoff/circuit-breaker policy deterministically.
	loopHook func() error

	// outcomeHook, when non-nil, is invoked once per item with whether
	// it failed. The health package wires this in to feed its rolling
	// error-rate window without worker importing health.
	outcomeHook func(failed bool)
}

// SetOutcomeObserver registers fn to be called once per processed item
// with whether it failed (including panics). It is not safe to call
// concurrently with Start.
func (w *BoundedWorker) SetOutcomeObserver(fn func(failed bool)) {
	w.outcomeHook = fn
}

// New constructs a BoundedWorker. The worker does not start processing
// until Start is called (the Lifecycle Manager owns that ordering).
func New(capacity, maxRestartAttempts int, baseDelay time.Duration) *BoundedWorker {
	return &BoundedWorker{
		capacity:           capacity,
		maxRestartAttempts: maxRestartAttempts,
		baseDelay:          baseDelay,
		q:                  queue.New[WorkItem](),
		wakeCh:             make(chan struct{}, 1),
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
		warned:             make(map[string]bool),
	}
}

// Start launches the single background reader goroutine. Calling Start
// more than once is a no-op.
func (w *BoundedWorker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run()
}

// TryEnqueue writes item to the queue. If the queue was at capacity, the
// oldest pending item is dropped. TryEnqueue never blocks and returns
// false whenever a drop occurred — from capacity, from the worker being
// disposed, from the circuit being open, or from a FlushAsync in
// progress (which marks the queue closed to new writes until it returns).
func (w *BoundedWorker) TryEnqueue(item WorkItem) bool {
	if w.closed.Load() || w.circuitOpen.Load() || w.flushing.Load() {
		return false
	}

	dropped := false
	w.mu.Lock()
	if w.q.Length() >= w.capacity {
		old := w.q.Remove()
		dropped = true
		w.dropped.Inc()
		w.logDropWarning(old.OperationType())
	}
	w.q.Add(item)
	w.mu.Unlock()

	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
	return !dropped
}

func (w *BoundedWorker) logDropWarning(opType string) {
	w.warnedMu.Lock()
	already := w.warned[opType]
	w.warned[opType] = true
	total := w.dropped.Load()
	w.warnedMu.Unlock()

	if !already {
		log.Warn("telemetry queue full; dropping %s operations (total dropped: %d)", opType, total)
	}
}

// FlushAsync marks the queue as no-more-writes, waits until drained or
// timeout elapses, and reports how much was flushed. It honors ctx
// cancellation as an immediate timeout.
func (w *BoundedWorker) FlushAsync(ctx context.Context, timeout time.Duration) (FlushResult, error) {
	if w.closed.Load() {
		return FlushResult{}, errs.New(errs.ObjectDisposed, "worker is disposed")
	}
	w.flushing.Store(true)
	defer w.flushing.Store(false)

	processedAtStart := w.processed.Load()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		remaining := w.queueLen()
		if remaining == 0 {
			return FlushResult{
				Success:      true,
				ItemsFlushed: w.processed.Load() - processedAtStart,
			}, nil
		}
		select {
		case <-ctx.Done():
			return FlushResult{ItemsRemaining: remaining, TimedOut: true, ItemsFlushed: w.processed.Load() - processedAtStart}, nil
		case <-deadline.C:
			return FlushResult{ItemsRemaining: remaining, TimedOut: true, ItemsFlushed: w.processed.Load() - processedAtStart}, nil
		case <-ticker.C:
		}
	}
}

// Dispose cancels processing, joins the worker goroutine bounded by
// GraceDisposeTimeout, and is idempotent.
func (w *BoundedWorker) Dispose() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !w.started.Load() {
		return nil
	}
	close(w.stopCh)
	select {
	case <-w.doneCh:
	case <-time.After(GraceDisposeTimeout):
		log.Warn("telemetry worker did not stop within the %s grace period", GraceDisposeTimeout)
	}
	return nil
}

// Stats returns a point-in-time snapshot of the worker's counters.
func (w *BoundedWorker) Stats() Stats {
	return Stats{
		QueueDepth:  w.queueLen(),
		Processed:   w.processed.Load(),
		Dropped:     w.dropped.Load(),
		Failed:      w.failed.Load(),
		Restart:     w.restart.Load(),
		CircuitOpen: w.circuitOpen.Load(),
	}
}

// Capacity returns the configured queue capacity.
func (w *BoundedWorker) Capacity() int { return w.capacity }

func (w *BoundedWorker) queueLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.q.Length()
}

// run is the crash-resilient supervisor: it re-enters the processing
// loop after a backoff whenever the loop itself (not an individual
// item) panics, until maxRestartAttempts is exceeded, at which point
// the circuit opens permanently.
func (w *BoundedWorker) run() {
	defer close(w.doneCh)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = w.baseDelay
	bo.Multiplier = 2
	bo.MaxInterval = 30 * time.Second
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	// the constructor already primed the first interval from the library
	// default; Reset re-primes it from baseDelay
	bo.Reset()

	consecutiveFailures := 0
	for {
		stopped, err := w.safeProcessLoop()
		if stopped {
			return
		}
		if err == nil {
			continue
		}
		consecutiveFailures++
		log.Error("telemetry worker loop failed (%d/%d): %v", consecutiveFailures, w.maxRestartAttempts, err)
		if consecutiveFailures > w.maxRestartAttempts {
			w.circuitOpen.Store(true)
			log.Error("telemetry worker circuit breaker open after %d consecutive loop failures", consecutiveFailures)
			return
		}
		delay := bo.NextBackOff()
		time.Sleep(delay)
		w.restart.Inc()
	}
}

// safeProcessLoop runs the drain loop under a panic guard. stopped is
// true only when stopCh fired (normal shutdown); err is non-nil when
// the loop itself panicked.
func (w *BoundedWorker) safeProcessLoop() (stopped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	// loopHook, when set, simulates the processing loop itself failing
	// on entry — independent of whether any item has been enqueued —
	// so the restart/backoff/circuit-breaker policy can be exercised
	// deterministically in tests.
	if w.loopHook != nil {
		if herr := w.loopHook(); herr != nil {
			panic(herr)
		}
	}
	for {
		select {
		case <-w.stopCh:
			w.drainOnce()
			return true, nil
		case <-w.wakeCh:
			w.drainOnce()
		}
	}
}

// drainOnce pulls every item currently queued and executes each one
// under its own recover, so one bad item never aborts the batch or
// counts as a loop failure.
func (w *BoundedWorker) drainOnce() {
	w.mu.Lock()
	items := make([]WorkItem, 0, w.q.Length())
	for w.q.Length() > 0 {
		items = append(items, w.q.Remove())
	}
	w.mu.Unlock()

	for _, item := range items {
		w.executeItem(item)
	}
}

func (w *BoundedWorker) executeItem(item WorkItem) {
	defer func() {
		if r := recover(); r != nil {
			w.failed.Inc()
			log.Warn("telemetry worker item of type %q panicked: %v", item.OperationType(), r)
			if w.outcomeHook != nil {
				w.outcomeHook(true)
			}
		}
	}()
	if err := item.Execute(context.Background()); err != nil {
		w.failed.Inc()
		log.Warn("telemetry worker item of type %q failed: %v", item.OperationType(), err)
		if w.outcomeHook != nil {
			w.outcomeHook(true)
		}
		return
	}
	w.processed.Inc()
	if w.outcomeHook != nil {
		w.outcomeHook(false)
	}
}
