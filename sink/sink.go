// Package sink implements the pluggable consumer contract for the
// telemetry pipeline: spans, metric measurements and structured events
// fan out to every registered Sink that declares it accepts that kind,
// each in isolation from the others' failures.
package sink

import (
	"context"
	"time"

	"github.com/brightloom/telemetry/scope"
)

// Kind identifies which of the three record shapes a Sink accepts.
type Kind int

const (
	KindSpan Kind = iota
	KindMeasurement
	KindStructuredEvent
)

// Measurement is a standalone metric sample routed to sinks directly
// (as opposed to the synchronous path through metrics.Recorder), used
// for sinks that want their own copy of counter/histogram activity —
// e.g. a StatsdSink mirroring spans' duration/error metrics.
type Measurement struct {
	InstrumentName string
	Value          float64
	Tags           []scope.Tag
	Timestamp      time.Time
}

// StructuredEvent is a free-form, named event with attributes —used by
// exception recording and logging enrichment to hand sinks something
// richer than a single span.
type StructuredEvent struct {
	Name      string
	Attrs     []scope.Tag
	Timestamp time.Time
}

// Record is the tagged variant a Sink receives.
type Record struct {
	Kind        Kind
	Span        *scope.Span
	Measurement *Measurement
	Event       *StructuredEvent
}

// Sink is the single consumer contract. Accepts declares which record
// kinds a sink wants — the caller is expected to check it before
// calling Submit, so a sink never has to ignore a kind it doesn't
// handle.
type Sink interface {
	Accepts(kind Kind) bool
	Submit(record Record) error
	Flush(ctx context.Context, timeout time.Duration) error
}
