package sampler

import "time"

// Predicate inspects a sampling Context and reports whether it should
// be force-sampled, independent of the base decision.
type Predicate func(ctx Context) bool

// Conditional wraps a base Sampler and forces RecordAndSample whenever
// the context looks like an error or a slow operation, or whenever a
// caller-supplied predicate says so. The overlay never turns a
// base RecordAndSample into a Drop — it only ever promotes.
type Conditional struct {
	base           Sampler
	slowThreshold  time.Duration
	customPredicate Predicate
}

// NewConditional wraps base. slowThreshold is compared against a
// "duration.ms" tag, when present; zero disables the slow-overlay.
func NewConditional(base Sampler, slowThreshold time.Duration) *Conditional {
	return &Conditional{base: base, slowThreshold: slowThreshold}
}

// WithPredicate installs a custom predicate checked before the
// built-in error/slow overlay. It is evaluated first so a caller can
// short-circuit the rest of the checks.
func (c *Conditional) WithPredicate(p Predicate) *Conditional {
	c.customPredicate = p
	return c
}

func (c *Conditional) ShouldSample(ctx Context) Result {
	if c.customPredicate != nil && c.customPredicate(ctx) {
		return Result{Decision: RecordAndSample, Reason: "conditional_predicate"}
	}
	if reason, forced := c.forcedReason(ctx); forced {
		return Result{Decision: RecordAndSample, Reason: reason}
	}
	return c.base.ShouldSample(ctx)
}

func (c *Conditional) forcedReason(ctx Context) (string, bool) {
	for _, t := range ctx.Tags {
		switch t.Key {
		case "error":
			if b, ok := t.Value.(bool); ok && b {
				return "conditional_error_tag", true
			}
		case "exception.type":
			if s, ok := t.Value.(string); ok && s != "" {
				return "conditional_exception_present", true
			}
		case "duration.ms":
			if c.slowThreshold <= 0 {
				continue
			}
			ms, ok := asFloat(t.Value)
			if ok && time.Duration(ms*float64(time.Millisecond)) >= c.slowThreshold {
				return "conditional_slow_operation", true
			}
		}
	}
	return "", false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
