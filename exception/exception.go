// Package exception implements explicit and first-chance exception
// recording: Record() appends to the current Operation Scope and a
// global aggregator; the first-chance hook is rate-limited with
// golang.org/x/time/rate and respects an exclusion list, and must
// never itself panic or propagate an error into the observed code path.
package exception

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/brightloom/telemetry/scope"
)

// Stat is one aggregated exception type's running counters.
type Stat struct {
	Count     int64
	FirstSeen time.Time
	LastSeen  time.Time
}

// Aggregator tracks exception counts by type name across the process.
type Aggregator struct {
	mu    sync.Mutex
	stats map[string]*Stat
}

// NewAggregator constructs an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{stats: make(map[string]*Stat)}
}

func (a *Aggregator) record(typeName string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.stats[typeName]
	if !ok {
		s = &Stat{FirstSeen: at}
		a.stats[typeName] = s
	}
	s.Count++
	s.LastSeen = at
}

// Snapshot returns a copy of the current per-type stats.
func (a *Aggregator) Snapshot() map[string]Stat {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]Stat, len(a.stats))
	for k, v := range a.stats {
		out[k] = *v
	}
	return out
}

// Record appends an exception event to s (if non-nil) with
// {exception.type, exception.message, exception.stacktrace} attributes,
// and updates agg's global counters.
func Record(agg *Aggregator, s *scope.Scope, err error, stacktrace string) {
	if err == nil {
		return
	}
	typeName := typeNameOf(err)
	now := time.Now().UTC()
	if agg != nil {
		agg.record(typeName, now)
	}
	if s != nil {
		s.AddEvent("exception",
			scope.Tag{Key: "exception.type", Value: typeName},
			scope.Tag{Key: "exception.message", Value: err.Error()},
			scope.Tag{Key: "exception.stacktrace", Value: stacktrace},
		)
		s.MarkFailed("")
	}
}

func typeNameOf(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "error"
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// DefaultExcludedTypes matches the design note default: cancellation-
// like types are not interesting as first-chance noise. context.Canceled
// is a plain errors.New value, so Observe matches it by identity under
// the "context.canceledError" key.
var DefaultExcludedTypes = map[string]bool{
	"context.deadlineExceededError": true,
	"context.canceledError":         true,
}

// FirstChanceHook observes every thrown exception in the host, rate
// limited and filtered by an exclusion list. It must never itself
// panic or return an error to the caller — Observe swallows everything.
type FirstChanceHook struct {
	agg      *Aggregator
	limiter  *rate.Limiter
	excluded map[string]bool
	onObserve func(err error, typeName string)
}

// NewFirstChanceHook constructs a hook rate-limited to ratePerSec
// events/second (bursting up to the same amount), with the given
// exclusion list (nil uses DefaultExcludedTypes).
func NewFirstChanceHook(agg *Aggregator, ratePerSec float64, excluded map[string]bool) *FirstChanceHook {
	if ratePerSec <= 0 {
		ratePerSec = 100
	}
	if excluded == nil {
		excluded = DefaultExcludedTypes
	}
	return &FirstChanceHook{
		agg:      agg,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), int(ratePerSec)),
		excluded: excluded,
	}
}

// OnObserve installs a callback invoked for every exception that
// passes the rate limit and exclusion filter, for tests or additional
// reporting. Never called with a nil err.
func (h *FirstChanceHook) OnObserve(fn func(err error, typeName string)) {
	h.onObserve = fn
}

// Observe is the hook entry point. Safe to call from any goroutine;
// never panics or returns an error.
func (h *FirstChanceHook) Observe(ctx context.Context, err error) {
	defer func() { _ = recover() }()
	if err == nil {
		return
	}
	typeName := typeNameOf(err)
	if h.excluded[typeName] || (h.excluded["context.canceledError"] && errors.Is(err, context.Canceled)) {
		return
	}
	if !h.limiter.Allow() {
		return
	}
	if h.agg != nil {
		h.agg.record(typeName, time.Now().UTC())
	}
	if h.onObserve != nil {
		h.onObserve(err, typeName)
	}
}
