// Package logging implements the ambient logging enricher: a logrus
// hook that stamps every log entry carrying a context.Context with
// {correlation_id, trace_id, span_id}, grounded on the teacher's
// DDContextLogHook.Fire(e) pattern (contrib/sirupsen/logrus), adapted
// to this module's correlation and scope packages instead of
// tracer.SpanFromContext.
package logging

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/brightloom/telemetry/correlation"
	"github.com/brightloom/telemetry/scope"
)

// ContextHook adds correlation_id/trace_id/span_id fields to every
// logrus.Entry that carries a context.Context in e.Context. Reads use
// the raw peek (correlation.GetRawValue), never auto-materializing a
// correlation id just because a log line was written.
type ContextHook struct{}

// Levels reports that this hook fires for every log level.
func (h *ContextHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire enriches e.Data in place. A nil e.Context, or one with neither a
// correlation id nor an ambient span, leaves e.Data untouched.
func (h *ContextHook) Fire(e *logrus.Entry) error {
	ctx, ok := e.Context.(context.Context)
	if !ok || ctx == nil {
		return nil
	}

	if id, ok := correlation.GetRawValue(ctx); ok {
		e.Data["correlation_id"] = id
	}

	if s, ok := scope.ScopeFromContext(ctx); ok {
		e.Data["trace_id"] = s.TraceID().String()
		e.Data["span_id"] = s.SpanID().String()
	}

	return nil
}
