// Package sampler implements the sampler family: a single contract
// (Sampler) plus Probabilistic, PerSource, Conditional and Adaptive
// implementations, per the design notes' "single interface plus variant
// implementations, no inheritance deeper than one level".
package sampler

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/brightloom/telemetry/spankind"
)

// Decision is the outcome of a sampling check.
type Decision int

const (
	Drop Decision = iota
	RecordAndSample
)

// Tag is a scalar attribute attached to a sampling context, used by the
// Conditional sampler's always-sample-errors/slow overlay.
type Tag struct {
	Key   string
	Value any
}

// Result is what ShouldSample returns. Reason strings are intended to be
// cheap to produce — samplers that can, cache them to avoid per-call
// allocation (see Probabilistic).
type Result struct {
	Decision Decision
	Reason   string
}

// Context is everything a sampler needs to decide.
type Context struct {
	TraceID         trace.TraceID
	ActivitySource  string
	OperationName   string
	Kind            spankind.Kind
	Tags            []Tag
}

// Sampler is the common contract every sampler family member satisfies.
type Sampler interface {
	ShouldSample(ctx Context) Result
}
