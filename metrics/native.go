package metrics

import (
	"context"

	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
)

// nativeRecorder delegates directly to the host's OpenTelemetry
// MeterProvider, passing tags as attribute key-values. This is the
// "Native" backend: the host's first-class metrics API.
type nativeRecorder struct {
	meter      otelmetric.Meter
	cardinality *cardinalityTracker
}

// NewNativeRecorder builds a Recorder over an existing OTel Meter.
func NewNativeRecorder(meter otelmetric.Meter) Recorder {
	return &nativeRecorder{
		meter:       meter,
		cardinality: newCardinalityTracker(DefaultCardinalityWarnThreshold, DefaultCardinalityCap),
	}
}

func (r *nativeRecorder) CreateCounter(name string, opts ...InstrumentOption) (Counter, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	cfg := resolveInstrumentConfig(opts...)
	c, err := r.meter.Int64Counter(name, otelmetric.WithUnit(cfg.unit), otelmetric.WithDescription(cfg.description))
	if err != nil {
		return nil, err
	}
	return &nativeCounter{name: name, counter: c, cardinality: r.cardinality}, nil
}

func (r *nativeRecorder) CreateInt64Histogram(name string, opts ...InstrumentOption) (Int64Histogram, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	cfg := resolveInstrumentConfig(opts...)
	h, err := r.meter.Int64Histogram(name, otelmetric.WithUnit(cfg.unit), otelmetric.WithDescription(cfg.description))
	if err != nil {
		return nil, err
	}
	return &nativeInt64Histogram{name: name, hist: h, cardinality: r.cardinality}, nil
}

func (r *nativeRecorder) CreateFloat64Histogram(name string, opts ...InstrumentOption) (Float64Histogram, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	cfg := resolveInstrumentConfig(opts...)
	h, err := r.meter.Float64Histogram(name, otelmetric.WithUnit(cfg.unit), otelmetric.WithDescription(cfg.description))
	if err != nil {
		return nil, err
	}
	return &nativeFloat64Histogram{name: name, hist: h, cardinality: r.cardinality}, nil
}

func (r *nativeRecorder) CreateObservableGauge(name string, observe func() float64, opts ...InstrumentOption) (GaugeHandle, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	cfg := resolveInstrumentConfig(opts...)
	g, err := r.meter.Float64ObservableGauge(name, otelmetric.WithUnit(cfg.unit), otelmetric.WithDescription(cfg.description))
	if err != nil {
		return nil, err
	}
	reg, err := r.meter.RegisterCallback(func(_ context.Context, o otelmetric.Observer) (err error) {
		defer func() {
			// An observe callback may be user-supplied; never let a
			// panic from it escape to the host's OTel pipeline.
			if rec := recover(); rec != nil {
				err = nil
			}
		}()
		o.ObserveFloat64(g, observe())
		return nil
	}, g)
	if err != nil {
		return nil, err
	}
	return &gaugeHandle{reg: reg}, nil
}

type gaugeHandle struct {
	reg    otelmetric.Registration
	closed atomic.Bool
}

// Close stops further callback invocations. Idempotent: a second Close
// is a no-op rather than a second Unregister call.
func (h *gaugeHandle) Close() error {
	if h.reg == nil || !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	return h.reg.Unregister()
}

type nativeCounter struct {
	name        string
	counter     otelmetric.Int64Counter
	cardinality *cardinalityTracker
}

func (c *nativeCounter) Add(ctx context.Context, value int64, tags ...Tag) error {
	if value < 0 {
		return negativeCounterErr
	}
	if err := validateTags(tags); err != nil {
		return err
	}
	c.cardinality.Observe(c.name, tags)
	c.counter.Add(ctx, value, otelmetric.WithAttributes(toAttrs(tags)...))
	return nil
}

type nativeInt64Histogram struct {
	name        string
	hist        otelmetric.Int64Histogram
	cardinality *cardinalityTracker
}

func (h *nativeInt64Histogram) Record(ctx context.Context, value int64, tags ...Tag) error {
	if err := validateTags(tags); err != nil {
		return err
	}
	h.cardinality.Observe(h.name, tags)
	h.hist.Record(ctx, value, otelmetric.WithAttributes(toAttrs(tags)...))
	return nil
}

type nativeFloat64Histogram struct {
	name        string
	hist        otelmetric.Float64Histogram
	cardinality *cardinalityTracker
}

func (h *nativeFloat64Histogram) Record(ctx context.Context, value float64, tags ...Tag) error {
	if err := validateTags(tags); err != nil {
		return err
	}
	h.cardinality.Observe(h.name, tags)
	h.hist.Record(ctx, value, otelmetric.WithAttributes(toAttrs(tags)...))
	return nil
}
