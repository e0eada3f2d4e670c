package scope

import (
	"context"
	"reflect"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.opentelemetry.io/otel/trace"

	"github.com/brightloom/telemetry/internal/log"
	"github.com/brightloom/telemetry/metrics"
)

type state int32

const (
	stateStarted state = iota
	stateRunning
	stateEnding
	stateEnded
)

// Scope is the live OperationScope object returned by Tracer.Begin.
// Exactly one call to End takes effect; later calls, and any tag/event
// mutation after Ended, are no-ops logged at debug.
type Scope struct {
	tracer *Tracer

	mu   sync.Mutex
	span Span

	parentCorrelationID string
	startTimestamp      time.Time
	recording           bool

	failed         atomic.Bool
	statusDesc     atomic.String
	state          atomic.Int32
	capturedParams []CapturedParameter
}

// OperationName reports the span's operation name.
func (s *Scope) OperationName() string { return s.span.OperationName }

// TraceID reports the span's trace id.
func (s *Scope) TraceID() trace.TraceID { return s.span.TraceID }

// SpanID reports the span's own id.
func (s *Scope) SpanID() trace.SpanID { return s.span.SpanID }

// CapturedParameters returns the bounded parameter snapshot taken at
// Begin, or nil if capture was disabled.
func (s *Scope) CapturedParameters() []CapturedParameter { return s.capturedParams }

// ParentCorrelationID returns the correlation id observed at Begin.
func (s *Scope) ParentCorrelationID() string { return s.parentCorrelationID }

func (s *Scope) ended() bool { return state(s.state.Load()) == stateEnded }

// SetTag attaches or overwrites a tag on the span. No-op after End.
func (s *Scope) SetTag(key string, value any) {
	if s.ended() {
		log.Debug("telemetry: SetTag(%q) ignored after scope ended", key)
		return
	}
	s.state.CompareAndSwap(int32(stateStarted), int32(stateRunning))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.span.setTag(key, value)
}

// AddEvent appends a timestamped, named event. No-op after End.
func (s *Scope) AddEvent(name string, attrs ...Tag) {
	if s.ended() {
		log.Debug("telemetry: AddEvent(%q) ignored after scope ended", name)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.span.addEvent(name, attrs)
}

// RecordException appends an exception event and marks the scope
// failed, matching MarkFailed's effect on the terminal status.
func (s *Scope) RecordException(err error) {
	if err == nil {
		return
	}
	s.failed.Store(true)
	s.AddEvent("exception", Tag{Key: "exception.type", Value: errorTypeName(err)}, Tag{Key: "exception.message", Value: err.Error()})
}

// MarkFailed marks the scope as failed, optionally with a status
// description to surface on the frozen span.
func (s *Scope) MarkFailed(description string) {
	s.failed.Store(true)
	if description != "" {
		s.statusDesc.Store(description)
	}
}

// End freezes the span, records duration/error metrics, and — if the
// sampler decided to record — enqueues the frozen span to the worker.
// Safe to call more than once; only the first call takes effect.
func (s *Scope) End() {
	if !s.state.CompareAndSwap(int32(stateStarted), int32(stateEnding)) &&
		!s.state.CompareAndSwap(int32(stateRunning), int32(stateEnding)) {
		log.Debug("telemetry: End() ignored, scope already ended")
		return
	}

	duration := s.tracer.now().Sub(s.startTimestamp)

	s.mu.Lock()
	s.span.Duration = duration
	if s.failed.Load() {
		s.span.StatusCode = StatusError
		s.span.StatusDesc = s.statusDesc.Load()
	} else {
		s.span.StatusCode = StatusOk
	}
	frozen := s.span
	s.mu.Unlock()

	statusTag := metrics.Tag{Key: "status", Value: frozen.StatusCode.String()}
	opTag := metrics.Tag{Key: "operation", Value: frozen.OperationName}
	ctx := context.Background()
	_ = s.tracer.duration.Record(ctx, float64(duration.Microseconds())/1000.0, opTag, statusTag)

	if s.failed.Load() {
		errTags := []metrics.Tag{opTag}
		if exType, ok := exceptionType(frozen); ok {
			errTags = append(errTags, metrics.Tag{Key: "exception.type", Value: exType})
		}
		_ = s.tracer.errors.Add(ctx, 1, errTags...)
	}

	if s.recording && s.tracer.worker != nil {
		s.tracer.worker.TryEnqueue(spanWorkItem{span: frozen, dispatch: s.tracer.dispatch})
	}

	s.state.Store(int32(stateEnded))
}

func exceptionType(span Span) (string, bool) {
	for i := len(span.Events) - 1; i >= 0; i-- {
		if span.Events[i].Name != "exception" {
			continue
		}
		for _, a := range span.Events[i].Attrs {
			if a.Key == "exception.type" {
				if s, ok := a.Value.(string); ok {
					return s, true
				}
			}
		}
	}
	return "", false
}

func errorTypeName(err error) string {
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

// spanWorkItem adapts a frozen Span into a worker.WorkItem.
type spanWorkItem struct {
	span     Span
	dispatch Dispatcher
}

func (w spanWorkItem) OperationType() string { return "span" }

func (w spanWorkItem) Execute(ctx context.Context) error {
	if w.dispatch == nil {
		return nil
	}
	return w.dispatch(w.span)
}
