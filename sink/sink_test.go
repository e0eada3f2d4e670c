package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/telemetry/scope"
)

type fakeSink struct {
	accept     Kind
	submitted  []Record
	submitErr  error
	flushCalls int
	onFlush    func()
}

func (f *fakeSink) Accepts(kind Kind) bool { return kind == f.accept }
func (f *fakeSink) Submit(r Record) error {
	f.submitted = append(f.submitted, r)
	return f.submitErr
}
func (f *fakeSink) Flush(ctx context.Context, timeout time.Duration) error {
	f.flushCalls++
	if f.onFlush != nil {
		f.onFlush()
	}
	return nil
}

func TestFanOutDispatchesOnlyToAcceptingSinks(t *testing.T) {
	spanSink := &fakeSink{accept: KindSpan}
	eventSink := &fakeSink{accept: KindStructuredEvent}
	fo := NewFanOut(spanSink, eventSink)

	err := fo.Dispatch(Record{Kind: KindSpan, Span: &scope.Span{OperationName: "op"}})
	require.NoError(t, err)

	assert.Len(t, spanSink.submitted, 1)
	assert.Empty(t, eventSink.submitted)
}

func TestFanOutIsolatesOneSinkFailure(t *testing.T) {
	failing := &fakeSink{accept: KindSpan, submitErr: errors.New("boom")}
	ok := &fakeSink{accept: KindSpan}
	fo := NewFanOut(failing, ok)

	err := fo.Dispatch(Record{Kind: KindSpan, Span: &scope.Span{OperationName: "op"}})
	assert.Error(t, err)
	assert.Len(t, failing.submitted, 1)
	assert.Len(t, ok.submitted, 1)
}

func TestFanOutFlushesInReverseOrder(t *testing.T) {
	var order []int
	first := &fakeSink{accept: KindSpan}
	second := &fakeSink{accept: KindSpan}
	fo := NewFanOut(first, second)
	first.onFlush = func() { order = append(order, 1) }
	second.onFlush = func() { order = append(order, 2) }

	err := fo.Flush(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, first.flushCalls)
	assert.Equal(t, 1, second.flushCalls)
	assert.Equal(t, []int{2, 1}, order)
}

func TestLogSinkWritesSpanAsEntry(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := NewLogSink(logger)

	span := &scope.Span{OperationName: "checkout", StatusCode: scope.StatusOk}
	require.NoError(t, s.Submit(Record{Kind: KindSpan, Span: span}))

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "checkout", hook.Entries[0].Message)
}

func TestLogSinkAcceptsEveryKind(t *testing.T) {
	s := NewLogSink(nil)
	assert.True(t, s.Accepts(KindSpan))
	assert.True(t, s.Accepts(KindMeasurement))
	assert.True(t, s.Accepts(KindStructuredEvent))
}
