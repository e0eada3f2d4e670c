package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/brightloom/telemetry/scope"
)

// StatsdSink mirrors span durations/statuses and raw measurements to a
// statsd-compatible backend. It never mutates a span; it only reads it.
type StatsdSink struct {
	client *statsd.Client
}

// NewStatsdSink dials addr (host:port, UDP by default) using the
// DataDog statsd client.
func NewStatsdSink(addr string, opts ...statsd.Option) (*StatsdSink, error) {
	c, err := statsd.New(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &StatsdSink{client: c}, nil
}

func (s *StatsdSink) Accepts(kind Kind) bool {
	return kind == KindSpan || kind == KindMeasurement
}

func (s *StatsdSink) Submit(record Record) error {
	switch record.Kind {
	case KindSpan:
		return s.submitSpan(record.Span)
	case KindMeasurement:
		return s.submitMeasurement(record.Measurement)
	default:
		return nil
	}
}

func (s *StatsdSink) submitSpan(span *scope.Span) error {
	if span == nil {
		return nil
	}
	tags := []string{
		"operation:" + span.OperationName,
		"status:" + span.StatusCode.String(),
	}
	durationMs := float64(span.Duration.Microseconds()) / 1000.0
	if err := s.client.Histogram("telemetry.operation.duration", durationMs, tags, 1); err != nil {
		return err
	}
	if span.StatusCode == scope.StatusError {
		return s.client.Count("telemetry.operation.errors", 1, tags, 1)
	}
	return nil
}

func (s *StatsdSink) submitMeasurement(m *Measurement) error {
	if m == nil {
		return nil
	}
	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, fmt.Sprintf("%s:%v", t.Key, t.Value))
	}
	return s.client.Gauge(m.InstrumentName, m.Value, tags, 1)
}

func (s *StatsdSink) Flush(ctx context.Context, timeout time.Duration) error {
	return s.client.Flush()
}

// Close releases the underlying statsd client's socket.
func (s *StatsdSink) Close() error {
	return s.client.Close()
}
