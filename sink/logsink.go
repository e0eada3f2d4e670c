package sink

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brightloom/telemetry/scope"
)

// LogSink writes every record kind as a structured logrus entry. It
// never blocks the pipeline on IO: logrus's own io.Writer is expected
// to be asynchronous or otherwise fast (the LogSink does not add its
// own buffering).
type LogSink struct {
	logger *logrus.Logger
}

// NewLogSink wraps logger. A nil logger uses logrus's own default
// instance.
func NewLogSink(logger *logrus.Logger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Accepts(kind Kind) bool { return true }

func (s *LogSink) Submit(record Record) error {
	switch record.Kind {
	case KindSpan:
		s.submitSpan(record.Span)
	case KindMeasurement:
		s.submitMeasurement(record.Measurement)
	case KindStructuredEvent:
		s.submitEvent(record.Event)
	}
	return nil
}

func (s *LogSink) submitSpan(span *scope.Span) {
	if span == nil {
		return
	}
	fields := logrus.Fields{
		"trace_id":       span.TraceID.String(),
		"span_id":        span.SpanID.String(),
		"operation_name": span.OperationName,
		"source_name":    span.SourceName,
		"kind":           span.Kind.String(),
		"status":         span.StatusCode.String(),
		"duration_ms":    float64(span.Duration.Microseconds()) / 1000.0,
	}
	for _, t := range span.Tags {
		fields["tag."+t.Key] = t.Value
	}
	entry := s.logger.WithFields(fields)
	if span.StatusCode == scope.StatusError {
		entry.Warn(span.OperationName)
		return
	}
	entry.Debug(span.OperationName)
}

func (s *LogSink) submitMeasurement(m *Measurement) {
	if m == nil {
		return
	}
	fields := logrus.Fields{"instrument": m.InstrumentName, "value": m.Value}
	for _, t := range m.Tags {
		fields["tag."+t.Key] = t.Value
	}
	s.logger.WithFields(fields).Debug("telemetry measurement")
}

func (s *LogSink) submitEvent(e *StructuredEvent) {
	if e == nil {
		return
	}
	fields := logrus.Fields{}
	for _, t := range e.Attrs {
		fields["attr."+t.Key] = t.Value
	}
	s.logger.WithFields(fields).Info(e.Name)
}

func (s *LogSink) Flush(ctx context.Context, timeout time.Duration) error {
	return nil
}
