package sink

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/brightloom/telemetry/internal/log"
)

// FanOut dispatches one Record to every registered Sink that accepts
// its kind. A sink's Submit failure never prevents the remaining sinks
// from receiving the record — all are tried, and the failures (if any)
// are aggregated only for the caller's own bookkeeping.
type FanOut struct {
	sinks []Sink
}

// NewFanOut registers sinks in the given order; Flush visits them in
// reverse of that order. FanOut never closes or disposes a sink.
func NewFanOut(sinks ...Sink) *FanOut {
	return &FanOut{sinks: append([]Sink(nil), sinks...)}
}

// Sinks returns the registered sinks in registration order.
func (f *FanOut) Sinks() []Sink { return f.sinks }

// Dispatch submits record to every sink that accepts its kind.
func (f *FanOut) Dispatch(record Record) error {
	var result error
	for _, s := range f.sinks {
		if !s.Accepts(record.Kind) {
			continue
		}
		if err := s.Submit(record); err != nil {
			log.Warn("telemetry sink failed to submit record: %v", err)
			result = multierror.Append(result, err)
		}
	}
	return result
}

// Flush flushes every registered sink in reverse registration order,
// aggregating (but not short-circuiting on) individual failures.
func (f *FanOut) Flush(ctx context.Context, timeout time.Duration) error {
	var result error
	for i := len(f.sinks) - 1; i >= 0; i-- {
		if err := f.sinks[i].Flush(ctx, timeout); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
