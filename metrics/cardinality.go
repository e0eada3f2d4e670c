package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/brightloom/telemetry/internal/log"
)

// DefaultCardinalityWarnThreshold is the default number of unique
// tag-value combinations per instrument after which a single warning is
// emitted.
const DefaultCardinalityWarnThreshold = 100

// DefaultCardinalityCap is the default number of unique combinations
// tracked per instrument before tracking stops (measurements still
// happen, they are simply no longer counted toward cardinality).
const DefaultCardinalityCap = 1000

// cardinalityTracker bounds memory used to detect unbounded tag
// cardinality: a known failure mode in metric systems. It never blocks
// emission — it only decides whether to log a one-shot warning.
type cardinalityTracker struct {
	warnThreshold int
	cap           int

	mu       sync.Mutex
	perInst  map[string]map[string]struct{}
	warned   map[string]bool
}

func newCardinalityTracker(warnThreshold, cap_ int) *cardinalityTracker {
	return &cardinalityTracker{
		warnThreshold: warnThreshold,
		cap:           cap_,
		perInst:       make(map[string]map[string]struct{}),
		warned:        make(map[string]bool),
	}
}

// Observe records one occurrence of tags for instrument and logs the
// one-shot warning when the threshold is crossed. Once the cap is
// reached, new combinations are no longer tracked.
func (c *cardinalityTracker) Observe(instrument string, tags []Tag) {
	key := tagSetKey(tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.perInst[instrument]
	if !ok {
		set = make(map[string]struct{})
		c.perInst[instrument] = set
	}
	if _, tracked := set[key]; !tracked && len(set) >= c.cap {
		// Cap reached: stop tracking new combinations, measurement
		// itself is unaffected.
		return
	}
	set[key] = struct{}{}

	if len(set) > c.warnThreshold && !c.warned[instrument] {
		c.warned[instrument] = true
		log.Warn("metric %q has exceeded %d unique tag combinations; cardinality may be unbounded", instrument, c.warnThreshold)
	}
}

func tagSetKey(tags []Tag) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(formatScalar(t.Value))
	}
	return b.String()
}
