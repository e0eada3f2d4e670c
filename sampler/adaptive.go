package sampler

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/brightloom/telemetry/internal/errs"
)

// Adaptive recomputes its effective sampling rate at most once per
// adjustment interval, targeting a fixed throughput of recorded
// operations per second, clamped to [rateMin, rateMax]. Every call
// that arrives between adjustments is judged against the
// currently-installed rate by delegating to an inner Probabilistic.
type Adaptive struct {
	targetPerSec float64
	rateMin      float64
	rateMax      float64
	interval     time.Duration

	mu       sync.Mutex
	inner    *Probabilistic
	lastAdj  time.Time
	seen     int64
	sampled  int64
	adjusting atomic.Bool

	now func() time.Time
}

// NewAdaptive constructs an Adaptive sampler. interval is floored at
// one second, matching the design note that adjustment happens "no
// more than once per second".
func NewAdaptive(targetPerSec, rateMin, rateMax float64, interval time.Duration) (*Adaptive, error) {
	if targetPerSec <= 0 {
		return nil, errs.New(errs.InvalidArgument, "adaptive sampler target throughput must be positive")
	}
	if rateMin < 0 || rateMax > 1 || rateMin > rateMax {
		return nil, errs.New(errs.InvalidArgument, "adaptive sampler rate bounds are invalid")
	}
	if interval < time.Second {
		interval = time.Second
	}
	initial, err := NewProbabilistic(clamp(rateMax, rateMin, rateMax))
	if err != nil {
		return nil, err
	}
	return &Adaptive{
		targetPerSec: targetPerSec,
		rateMin:      rateMin,
		rateMax:      rateMax,
		interval:     interval,
		inner:        initial,
		lastAdj:      time.Now(),
		now:          time.Now,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CurrentRate reports the rate currently in effect.
func (a *Adaptive) CurrentRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inner.Rate()
}

func (a *Adaptive) ShouldSample(ctx Context) Result {
	a.mu.Lock()
	a.seen++
	inner := a.inner
	elapsed := a.now().Sub(a.lastAdj)
	shouldAdjust := elapsed >= a.interval
	var seenSinceAdjust int64
	if shouldAdjust {
		seenSinceAdjust = a.seen
	}
	a.mu.Unlock()

	result := inner.ShouldSample(ctx)
	if result.Decision == RecordAndSample {
		a.mu.Lock()
		a.sampled++
		a.mu.Unlock()
	}

	if shouldAdjust && a.adjusting.CompareAndSwap(false, true) {
		defer a.adjusting.Store(false)
		a.adjust(elapsed, seenSinceAdjust)
	}
	return result
}

// adjust recomputes the installed rate from the observed sampled and
// total throughput over elapsed. Guarded by adjusting so only one
// goroutine recomputes per interval; other callers keep using the
// previously-installed rate in the meantime.
//
// Rule: if the observed sampled rate exceeds target, pull the rate
// down to target/observedTotalRate (floored at rateMin); if it falls
// below 80% of target, nudge the rate up by 20% (capped at rateMax);
// otherwise leave it alone.
func (a *Adaptive) adjust(elapsed time.Duration, seen int64) {
	a.mu.Lock()
	sampled := a.sampled
	currentRate := a.inner.Rate()
	a.mu.Unlock()

	secs := elapsed.Seconds()
	if secs <= 0 || seen == 0 {
		return
	}
	observedSampledPerSec := float64(sampled) / secs
	observedTotalPerSec := float64(seen) / secs

	nextRate := currentRate
	switch {
	case observedSampledPerSec > a.targetPerSec && observedTotalPerSec > 0:
		nextRate = a.targetPerSec / observedTotalPerSec
		if nextRate < a.rateMin {
			nextRate = a.rateMin
		}
	case observedSampledPerSec < 0.8*a.targetPerSec:
		nextRate = currentRate * 1.2
		if nextRate > a.rateMax {
			nextRate = a.rateMax
		}
	default:
		a.mu.Lock()
		a.lastAdj = a.now()
		a.seen = 0
		a.sampled = 0
		a.mu.Unlock()
		return
	}
	nextRate = clamp(nextRate, a.rateMin, a.rateMax)

	next, err := NewProbabilistic(nextRate)
	if err != nil {
		return
	}

	a.mu.Lock()
	a.inner = next
	a.lastAdj = a.now()
	a.seen = 0
	a.sampled = 0
	a.mu.Unlock()
}
