package exception

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customErr struct{ msg string }

func (e *customErr) Error() string { return e.msg }

func TestRecordUpdatesAggregator(t *testing.T) {
	agg := NewAggregator()
	Record(agg, nil, &customErr{msg: "bad thing"}, "stack...")

	snap := agg.Snapshot()
	var found bool
	for typeName, stat := range snap {
		if typeName == "github.com/brightloom/telemetry/exception.customErr" {
			found = true
			assert.Equal(t, int64(1), stat.Count)
		}
	}
	require.True(t, found)
}

func TestFirstChanceHookRespectsExclusionList(t *testing.T) {
	agg := NewAggregator()
	hook := NewFirstChanceHook(agg, 1000, map[string]bool{"github.com/brightloom/telemetry/exception.customErr": true})

	var observed int
	hook.OnObserve(func(err error, typeName string) { observed++ })
	hook.Observe(context.Background(), &customErr{msg: "filtered"})

	assert.Equal(t, 0, observed)
	assert.Empty(t, agg.Snapshot())
}

func TestFirstChanceHookRateLimits(t *testing.T) {
	agg := NewAggregator()
	hook := NewFirstChanceHook(agg, 1, nil)

	var observed int
	hook.OnObserve(func(err error, typeName string) { observed++ })
	for i := 0; i < 10; i++ {
		hook.Observe(context.Background(), errors.New("spam"))
	}
	assert.Less(t, observed, 10)
}

func TestFirstChanceHookNeverPanics(t *testing.T) {
	hook := NewFirstChanceHook(nil, 100, nil)
	hook.OnObserve(func(err error, typeName string) { panic("subscriber exploded") })
	assert.NotPanics(t, func() {
		hook.Observe(context.Background(), errors.New("boom"))
	})
}
