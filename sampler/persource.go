package sampler

import "sync"

// sourceOpKey is the (ActivitySource, OperationName) pair used for
// operation-specific overrides.
type sourceOpKey struct {
	source string
	op     string
}

// PerSource composes a default Sampler with per-source and
// per-(source,operation) overrides. Lookup prefers an exact
// operation-specific override, falls back to a source-level override,
// then falls back to the default. Safe for concurrent reads and writes.
type PerSource struct {
	mu        sync.RWMutex
	def       Sampler
	bySource  map[string]Sampler
	byOp      map[sourceOpKey]Sampler
}

// NewPerSource constructs a PerSource sampler with def as the fallback
// used when no override matches.
func NewPerSource(def Sampler) *PerSource {
	return &PerSource{
		def:      def,
		bySource: make(map[string]Sampler),
		byOp:     make(map[sourceOpKey]Sampler),
	}
}

// SetSourceOverride installs s as the sampler for every operation under
// source, unless a more specific operation override exists.
func (p *PerSource) SetSourceOverride(source string, s Sampler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bySource[source] = s
}

// SetOperationOverride installs s as the sampler for exactly
// (source, operation), taking priority over any source-level override.
func (p *PerSource) SetOperationOverride(source, operation string, s Sampler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byOp[sourceOpKey{source, operation}] = s
}

func (p *PerSource) ShouldSample(ctx Context) Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if s, ok := p.byOp[sourceOpKey{ctx.ActivitySource, ctx.OperationName}]; ok {
		return s.ShouldSample(ctx)
	}
	if s, ok := p.bySource[ctx.ActivitySource]; ok {
		return s.ShouldSample(ctx)
	}
	return p.def.ShouldSample(ctx)
}
