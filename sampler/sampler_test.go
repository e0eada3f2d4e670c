package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func mustTraceID(t *testing.T, hex string) trace.TraceID {
	t.Helper()
	id, err := trace.TraceIDFromHex(hex)
	require.NoError(t, err)
	return id
}

// TestProbabilisticMatchesScenario grounds spec.md §8 scenario 3: trace
// id 0af7651916cd43dd8448eb211c80319c must Drop at rate 0.25 and
// RecordAndSample at rate 0.60.
func TestProbabilisticMatchesScenario(t *testing.T) {
	id := mustTraceID(t, "0af7651916cd43dd8448eb211c80319c")
	ctx := Context{TraceID: id}

	low, err := NewProbabilistic(0.25)
	require.NoError(t, err)
	assert.Equal(t, Drop, low.ShouldSample(ctx).Decision)

	high, err := NewProbabilistic(0.60)
	require.NoError(t, err)
	assert.Equal(t, RecordAndSample, high.ShouldSample(ctx).Decision)
}

func TestProbabilisticIsDeterministic(t *testing.T) {
	id := mustTraceID(t, "4bf92f3577b34da6a3ce929d0e0e4736")
	s, err := NewProbabilistic(0.5)
	require.NoError(t, err)
	first := s.ShouldSample(Context{TraceID: id})
	for i := 0; i < 50; i++ {
		assert.Equal(t, first.Decision, s.ShouldSample(Context{TraceID: id}).Decision)
	}
}

func TestProbabilisticShortcuts(t *testing.T) {
	id := mustTraceID(t, "ffffffffffffffffffffffffffffffff")
	zero, err := NewProbabilistic(0)
	require.NoError(t, err)
	assert.Equal(t, Drop, zero.ShouldSample(Context{TraceID: id}).Decision)

	one, err := NewProbabilistic(1)
	require.NoError(t, err)
	assert.Equal(t, RecordAndSample, one.ShouldSample(Context{TraceID: mustTraceID(t, "00000000000000000000000000000001")}).Decision)
}

// 32 hex chars = 16 bytes, the minimum legal non-zero trace id.

func TestProbabilisticRejectsOutOfRange(t *testing.T) {
	_, err := NewProbabilistic(1.5)
	assert.Error(t, err)
	_, err = NewProbabilistic(-0.1)
	assert.Error(t, err)
}

func TestPerSourcePrefersOperationOverSource(t *testing.T) {
	always, _ := NewProbabilistic(1)
	never, _ := NewProbabilistic(0)

	p := NewPerSource(never)
	p.SetSourceOverride("orders", never)
	p.SetOperationOverride("orders", "checkout", always)

	id := mustTraceID(t, "0af7651916cd43dd8448eb211c80319c")
	res := p.ShouldSample(Context{TraceID: id, ActivitySource: "orders", OperationName: "checkout"})
	assert.Equal(t, RecordAndSample, res.Decision)

	res = p.ShouldSample(Context{TraceID: id, ActivitySource: "orders", OperationName: "refund"})
	assert.Equal(t, Drop, res.Decision)

	res = p.ShouldSample(Context{TraceID: id, ActivitySource: "inventory", OperationName: "restock"})
	assert.Equal(t, Drop, res.Decision)
}

func TestConditionalForcesSampleOnErrorTag(t *testing.T) {
	never, _ := NewProbabilistic(0)
	c := NewConditional(never, 0)
	id := mustTraceID(t, "0af7651916cd43dd8448eb211c80319c")
	res := c.ShouldSample(Context{TraceID: id, Tags: []Tag{{Key: "error", Value: true}}})
	assert.Equal(t, RecordAndSample, res.Decision)
	assert.Equal(t, "conditional_error_tag", res.Reason)
}

func TestConditionalForcesSampleOnSlowDuration(t *testing.T) {
	never, _ := NewProbabilistic(0)
	c := NewConditional(never, 500*time.Millisecond)
	id := mustTraceID(t, "0af7651916cd43dd8448eb211c80319c")
	res := c.ShouldSample(Context{TraceID: id, Tags: []Tag{{Key: "duration.ms", Value: 750.0}}})
	assert.Equal(t, RecordAndSample, res.Decision)
}

func TestConditionalFallsThroughToBase(t *testing.T) {
	always, _ := NewProbabilistic(1)
	c := NewConditional(always, 0)
	id := mustTraceID(t, "0af7651916cd43dd8448eb211c80319c")
	res := c.ShouldSample(Context{TraceID: id})
	assert.Equal(t, RecordAndSample, res.Decision)
	assert.Equal(t, "probabilistic_sample", res.Reason)
}

func TestConditionalCustomPredicateShortCircuits(t *testing.T) {
	never, _ := NewProbabilistic(0)
	c := NewConditional(never, 0).WithPredicate(func(ctx Context) bool {
		return ctx.OperationName == "force-me"
	})
	id := mustTraceID(t, "0af7651916cd43dd8448eb211c80319c")
	res := c.ShouldSample(Context{TraceID: id, OperationName: "force-me"})
	assert.Equal(t, RecordAndSample, res.Decision)
}

func TestAdaptiveRejectsInvalidConstruction(t *testing.T) {
	_, err := NewAdaptive(0, 0, 1, time.Second)
	assert.Error(t, err)
	_, err = NewAdaptive(10, 0.8, 0.2, time.Second)
	assert.Error(t, err)
}

func TestAdaptiveConvergesTowardTarget(t *testing.T) {
	a, err := NewAdaptive(5, 0, 1, time.Second)
	require.NoError(t, err)

	start := time.Now()
	tick := start
	a.now = func() time.Time { return tick }

	for round := 0; round < 3; round++ {
		for i := 0; i < 200; i++ {
			id := mustTraceID(t, "0af7651916cd43dd8448eb211c80319c")
			a.ShouldSample(Context{TraceID: id})
		}
		tick = tick.Add(2 * time.Second)
		// one more call to trigger the guarded recompute at the new tick
		a.ShouldSample(Context{TraceID: mustTraceID(t, "4bf92f3577b34da6a3ce929d0e0e4736")})
	}

	assert.GreaterOrEqual(t, a.CurrentRate(), 0.0)
	assert.LessOrEqual(t, a.CurrentRate(), 1.0)
	// round 1 samples ~100 ops/s against a target of 5, so the rate must
	// have been pulled down from its initial rateMax of 1.0
	assert.Less(t, a.CurrentRate(), 1.0)
}
