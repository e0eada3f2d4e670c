// Package scope implements the Operation Scope: the per-call lifecycle
// that ties a Span, the sampler decision, duration/error metrics, and
// correlation binding together, grounded on the teacher's Span design
// (fields, SetTag dispatch, and the Started/Running/Ending/Ended state
// machine mirror ddtrace/tracer's own span and its lock discipline).
package scope

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/brightloom/telemetry/spankind"
)

// StatusCode is the terminal outcome of a Span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOk
	StatusError
)

func (s StatusCode) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Tag is a scalar (or homogeneous array of scalars) attribute. Tags keys
// are unique within a Span.
type Tag struct {
	Key   string
	Value any
}

// Event is a timestamped, named annotation with its own attributes.
type Event struct {
	Name      string
	Timestamp time.Time
	Attrs     []Tag
}

// Span is the unit record the pipeline transports. It is exclusively
// owned and mutated by its Scope until frozen at End, then handed off
// (by value copy) to the Bounded Worker.
type Span struct {
	SpanID         trace.SpanID
	TraceID        trace.TraceID
	ParentSpanID   trace.SpanID // zero value means "no parent"
	SourceName     string
	OperationName  string
	Kind           spankind.Kind
	StartTimeUTC   time.Time
	Duration       time.Duration
	StatusCode     StatusCode
	StatusDesc     string
	Tags           []Tag
	Events         []Event
}

// HasParent reports whether ParentSpanID is a real (non-zero) parent.
func (s *Span) HasParent() bool { return s.ParentSpanID.IsValid() }

func (s *Span) setTag(key string, value any) {
	for i := range s.Tags {
		if s.Tags[i].Key == key {
			s.Tags[i].Value = value
			return
		}
	}
	s.Tags = append(s.Tags, Tag{Key: key, Value: value})
}

func (s *Span) addEvent(name string, attrs []Tag) {
	s.Events = append(s.Events, Event{Name: name, Timestamp: time.Now().UTC(), Attrs: attrs})
}
