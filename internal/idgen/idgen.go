// Package idgen generates random, non-zero trace and span identifiers,
// following the same crypto/rand-backed approach as OpenTelemetry's own
// SDK id generator (go.opentelemetry.io/otel/sdk/trace/id_generator.go),
// reusing otel/trace's TraceID/SpanID value types without pulling in the
// SDK's propagation or export machinery.
package idgen

import (
	"crypto/rand"

	"go.opentelemetry.io/otel/trace"
)

// NewTraceID returns a random, non-zero 128-bit trace id.
func NewTraceID() trace.TraceID {
	var id trace.TraceID
	for {
		_, _ = rand.Read(id[:])
		if id.IsValid() {
			return id
		}
	}
}

// NewSpanID returns a random, non-zero 64-bit span id.
func NewSpanID() trace.SpanID {
	var id trace.SpanID
	for {
		_, _ = rand.Read(id[:])
		if id.IsValid() {
			return id
		}
	}
}
