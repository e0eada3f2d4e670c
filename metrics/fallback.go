package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/brightloom/telemetry/internal/log"
)

// EventSink receives the structured events the fallback backend writes
// histogram/gauge samples to, keyed by the derived
// "<name>.<k1>=<v1>.<k2>=<v2>…" name described in the metric line format.
type EventSink interface {
	EmitMetricEvent(line string, value float64, timestamp time.Time)
}

// fallbackRecorder aggregates counters in per-tag-key-set atomic
// integers and writes histogram/gauge samples to a structured event
// stream. Used when the native backend cannot be constructed.
type fallbackRecorder struct {
	sink        EventSink
	cardinality *cardinalityTracker

	mu       sync.Mutex
	counters map[string]*atomic.Int64
}

// NewFallbackRecorder builds a Recorder that never touches a host
// metrics API, for hosts lacking one (or during probe failure).
func NewFallbackRecorder(sink EventSink) Recorder {
	return &fallbackRecorder{
		sink:        sink,
		cardinality: newCardinalityTracker(DefaultCardinalityWarnThreshold, DefaultCardinalityCap),
		counters:    make(map[string]*atomic.Int64),
	}
}

func (r *fallbackRecorder) CreateCounter(name string, _ ...InstrumentOption) (Counter, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return &fallbackCounter{name: name, parent: r}, nil
}

func (r *fallbackRecorder) CreateInt64Histogram(name string, _ ...InstrumentOption) (Int64Histogram, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return &fallbackInt64Histogram{name: name, parent: r}, nil
}

func (r *fallbackRecorder) CreateFloat64Histogram(name string, _ ...InstrumentOption) (Float64Histogram, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return &fallbackFloat64Histogram{name: name, parent: r}, nil
}

func (r *fallbackRecorder) CreateObservableGauge(name string, observe func() float64, _ ...InstrumentOption) (GaugeHandle, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	stop := make(chan struct{})
	ticker := time.NewTicker(1 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.safeObserve(name, observe)
			}
		}
	}()
	return &fallbackGaugeHandle{stop: stop}, nil
}

// safeObserve invokes observe under a guard: a callback throwing any
// exception is swallowed silently, the gauge simply skips this tick —
// the last-known value is not retained.
func (r *fallbackRecorder) safeObserve(name string, observe func() float64) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Debug("observable gauge %q callback panicked, skipping tick: %v", name, rec)
		}
	}()
	v := observe()
	r.cardinality.Observe(name, nil)
	r.sink.EmitMetricEvent(name, v, time.Now().UTC())
}

func (r *fallbackRecorder) counterFor(key string) *atomic.Int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[key]
	if !ok {
		c = atomic.NewInt64(0)
		r.counters[key] = c
	}
	return c
}

type fallbackCounter struct {
	name   string
	parent *fallbackRecorder
}

func (c *fallbackCounter) Add(_ context.Context, value int64, tags ...Tag) error {
	if value < 0 {
		return negativeCounterErr
	}
	if err := validateTags(tags); err != nil {
		return err
	}
	c.parent.cardinality.Observe(c.name, tags)
	key := formatTagsOrdered(c.name, tags)
	c.parent.counterFor(key).Add(value)
	return nil
}

type fallbackInt64Histogram struct {
	name   string
	parent *fallbackRecorder
}

func (h *fallbackInt64Histogram) Record(_ context.Context, value int64, tags ...Tag) error {
	if err := validateTags(tags); err != nil {
		return err
	}
	h.parent.cardinality.Observe(h.name, tags)
	h.parent.sink.EmitMetricEvent(formatTagsOrdered(h.name, tags), float64(value), time.Now().UTC())
	return nil
}

type fallbackFloat64Histogram struct {
	name   string
	parent *fallbackRecorder
}

func (h *fallbackFloat64Histogram) Record(_ context.Context, value float64, tags ...Tag) error {
	if err := validateTags(tags); err != nil {
		return err
	}
	h.parent.cardinality.Observe(h.name, tags)
	h.parent.sink.EmitMetricEvent(formatTagsOrdered(h.name, tags), value, time.Now().UTC())
	return nil
}

type fallbackGaugeHandle struct {
	closeOnce sync.Once
	stop      chan struct{}
}

func (h *fallbackGaugeHandle) Close() error {
	h.closeOnce.Do(func() { close(h.stop) })
	return nil
}
