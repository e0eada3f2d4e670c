// Package health derives a Healthy/Degraded/Unhealthy view from the
// Bounded Worker's counters plus a rolling error-rate window, per the
// thresholds in the design notes (queue-depth % and error-rate %).
package health

import (
	"sync"
	"time"

	"github.com/brightloom/telemetry/worker"
)

// Status is the coarse health verdict.
type Status int

const (
	Healthy Status = iota
	Degraded
	Unhealthy
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	default:
		return "unhealthy"
	}
}

// Thresholds configures the two axes the health check considers:
// queue-depth percentage of capacity, and error rate percentage over
// the rolling window.
type Thresholds struct {
	DegradedQueueDepthPct float64
	DegradedErrorRatePct  float64
	UnhealthyQueueDepthPct float64
	UnhealthyErrorRatePct  float64
}

// DefaultThresholds matches the design note defaults.
var DefaultThresholds = Thresholds{
	DegradedQueueDepthPct:  75,
	DegradedErrorRatePct:   5,
	UnhealthyQueueDepthPct: 95,
	UnhealthyErrorRatePct:  20,
}

// View is the read-only snapshot exposed to operators/health checks.
type View struct {
	QueueDepth        int
	QueueDepthPct     float64
	Processed         int64
	Dropped           int64
	Failed            int64
	Restart           int64
	CircuitOpen       bool
	CurrentSampleRate float64
	ErrorRatePct      float64
	Status            Status
}

// Checker derives a View from a BoundedWorker plus a rolling error-rate
// window, and the currently-installed sampling rate (read via a
// caller-supplied func so any sampler family member can report it).
type Checker struct {
	w          *worker.BoundedWorker
	thresholds Thresholds
	sampleRate func() float64
	window     *errorWindow
}

// NewChecker constructs a Checker. windowSize bounds how many
// processed-item outcomes the rolling error rate considers.
func NewChecker(w *worker.BoundedWorker, sampleRate func() float64, windowSize int, thresholds Thresholds) *Checker {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &Checker{
		w:          w,
		thresholds: thresholds,
		sampleRate: sampleRate,
		window:     newErrorWindow(windowSize),
	}
}

// Observe records one item outcome into the rolling error-rate window.
func (c *Checker) Observe(failed bool) {
	c.window.record(failed)
}

// Check computes the current View and Status.
func (c *Checker) Check() View {
	stats := c.w.Stats()
	capacity := c.w.Capacity()

	var queuePct float64
	if capacity > 0 {
		queuePct = float64(stats.QueueDepth) / float64(capacity) * 100
	}
	errRate := c.window.rate() * 100

	v := View{
		QueueDepth:    stats.QueueDepth,
		QueueDepthPct: queuePct,
		Processed:     stats.Processed,
		Dropped:       stats.Dropped,
		Failed:        stats.Failed,
		Restart:       stats.Restart,
		CircuitOpen:   stats.CircuitOpen,
		ErrorRatePct:  errRate,
	}
	if c.sampleRate != nil {
		v.CurrentSampleRate = c.sampleRate()
	}

	switch {
	case stats.CircuitOpen, queuePct >= c.thresholds.UnhealthyQueueDepthPct, errRate >= c.thresholds.UnhealthyErrorRatePct:
		v.Status = Unhealthy
	case queuePct >= c.thresholds.DegradedQueueDepthPct, errRate >= c.thresholds.DegradedErrorRatePct:
		v.Status = Degraded
	default:
		v.Status = Healthy
	}
	return v
}

// errorWindow is a fixed-size ring of bool outcomes for a rolling
// error rate.
type errorWindow struct {
	mu      sync.Mutex
	buf     []bool
	filled  []bool
	pos     int
	size    int
	lastSet time.Time
}

func newErrorWindow(size int) *errorWindow {
	return &errorWindow{
		buf:    make([]bool, size),
		filled: make([]bool, size),
		size:   size,
	}
}

func (w *errorWindow) record(failed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf[w.pos] = failed
	w.filled[w.pos] = true
	w.pos = (w.pos + 1) % w.size
	w.lastSet = time.Now()
}

func (w *errorWindow) rate() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total, failed int
	for i, f := range w.filled {
		if !f {
			continue
		}
		total++
		if w.buf[i] {
			failed++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
