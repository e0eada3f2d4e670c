package sampler

import (
	"math"

	"github.com/brightloom/telemetry/internal/errs"
)

// Probabilistic makes a deterministic decision from (rate, TraceId): the
// unsigned-64 interpretation of the trace id's low 64 bits is compared
// against a pre-computed threshold, so the same rate and trace id always
// produce the same decision, in any process.
type Probabilistic struct {
	rate      float64
	threshold uint64
	always    *Decision // set for the rate<=0 / rate>=1 shortcuts
	reasonKeep string
	reasonDrop string
}

// NewProbabilistic validates rate (must be within [0,1]) and
// pre-computes threshold = floor(rate * 2^64).
func NewProbabilistic(rate float64) (*Probabilistic, error) {
	if rate < 0 || rate > 1 {
		return nil, errs.Newf(errs.InvalidArgument, "sampling rate %v out of range [0,1]", rate)
	}
	p := &Probabilistic{
		rate:       rate,
		reasonKeep: "probabilistic_sample",
		reasonDrop: "probabilistic_drop",
	}
	switch {
	case rate >= 1:
		d := RecordAndSample
		p.always = &d
	case rate <= 0:
		d := Drop
		p.always = &d
	default:
		p.threshold = uint64(rate * math.MaxUint64)
	}
	return p, nil
}

func (p *Probabilistic) Rate() float64 { return p.rate }

func (p *Probabilistic) ShouldSample(ctx Context) Result {
	if p.always != nil {
		if *p.always == RecordAndSample {
			return Result{Decision: RecordAndSample, Reason: p.reasonKeep}
		}
		return Result{Decision: Drop, Reason: p.reasonDrop}
	}
	if lowBits(ctx.TraceID) <= p.threshold {
		return Result{Decision: RecordAndSample, Reason: p.reasonKeep}
	}
	return Result{Decision: Drop, Reason: p.reasonDrop}
}

func lowBits(id [16]byte) uint64 {
	var v uint64
	for _, b := range id[8:] {
		v = v<<8 | uint64(b)
	}
	return v
}
