// Package metrics implements the Metric Recorder: counters, histograms
// and observable gauges exposed uniformly over two possible host
// backends (a native OpenTelemetry meter, or an in-process fallback),
// with a bounded tag-cardinality tracker shared across both.
package metrics

import (
	"context"
	"strings"

	"github.com/brightloom/telemetry/internal/errs"
)

// Tag is a single (key, scalar value) pair. Arrays of Tags are logically
// an unordered set by key; CreateCounter/Add etc. reject duplicate keys
// within one call.
type Tag struct {
	Key   string
	Value any
}

// Recorder is the single public contract for the metric subsystem.
type Recorder interface {
	CreateCounter(name string, opts ...InstrumentOption) (Counter, error)
	CreateInt64Histogram(name string, opts ...InstrumentOption) (Int64Histogram, error)
	CreateFloat64Histogram(name string, opts ...InstrumentOption) (Float64Histogram, error)
	CreateObservableGauge(name string, observe func() float64, opts ...InstrumentOption) (GaugeHandle, error)
}

// Counter accepts only non-negative increments.
type Counter interface {
	Add(ctx context.Context, value int64, tags ...Tag) error
}

// Int64Histogram records integer-valued samples.
type Int64Histogram interface {
	Record(ctx context.Context, value int64, tags ...Tag) error
}

// Float64Histogram records floating-point samples.
type Float64Histogram interface {
	Record(ctx context.Context, value float64, tags ...Tag) error
}

// GaugeHandle is returned by CreateObservableGauge; Close stops further
// invocations of the observe callback.
type GaugeHandle interface {
	Close() error
}

// InstrumentOption configures unit/description metadata on instrument
// creation.
type InstrumentOption func(*instrumentConfig)

type instrumentConfig struct {
	unit        string
	description string
}

func WithUnit(unit string) InstrumentOption {
	return func(c *instrumentConfig) { c.unit = unit }
}

func WithDescription(desc string) InstrumentOption {
	return func(c *instrumentConfig) { c.description = desc }
}

func resolveInstrumentConfig(opts ...InstrumentOption) instrumentConfig {
	var c instrumentConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errs.New(errs.InvalidArgument, "instrument name must not be empty")
	}
	return trimmed, nil
}

func validateTags(tags []Tag) error {
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t.Key) == "" {
			return errs.New(errs.InvalidArgument, "tag key must not be empty")
		}
		if _, ok := seen[t.Key]; ok {
			return errs.Newf(errs.InvalidArgument, "duplicate tag key %q", t.Key)
		}
		seen[t.Key] = struct{}{}
	}
	return nil
}
