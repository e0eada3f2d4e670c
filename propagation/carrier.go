package propagation

import "go.opentelemetry.io/otel/trace"

// Carrier is the carrier-agnostic contract Inject/Extract operate
// against. Wire adapters (HTTP headers, RPC metadata, SOAP headers,
// broker message headers) each implement it once; the W3C and vendor
// logic below is written against the interface, not against any one
// wire format.
type Carrier interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

const (
	headerTraceParent = "traceparent"
	headerTraceState  = "tracestate"
)

// VendorConfig controls the optional vendor-native header emission
// described in the external interfaces section. Vendor is the lowercase
// vendor token used to build x-<vendor>-trace-id etc.
type VendorConfig struct {
	Vendor  string
	Enabled bool
}

// Inject writes the W3C traceparent (and tracestate, if non-empty) onto
// carrier, plus vendor-native headers when cfg.Enabled.
func Inject(tc TraceContext, carrier Carrier, cfg VendorConfig) {
	carrier.Set(headerTraceParent, tc.Emit())
	if tc.State != "" {
		carrier.Set(headerTraceState, tc.State)
	}
	if !cfg.Enabled || cfg.Vendor == "" {
		return
	}
	carrier.Set("x-"+cfg.Vendor+"-trace-id", lowDecimal(tc.TraceID))
	carrier.Set("x-"+cfg.Vendor+"-parent-id", spanIDDecimal(tc.SpanID))
}

// Extract prefers the W3C traceparent/tracestate pair; if absent or
// malformed, it falls back to vendor-native x-<vendor>-trace-id +
// x-<vendor>-parent-id (+ an optional sampling priority header). Returns
// ok=false if neither form is present or parseable — an ExtractorFailure,
// which the caller treats as "begin a new trace", not an error.
func Extract(carrier Carrier, cfg VendorConfig) (TraceContext, bool) {
	if raw, ok := carrier.Get(headerTraceParent); ok {
		if tc, ok := Parse(raw); ok {
			if state, ok := carrier.Get(headerTraceState); ok {
				if s, valid := ParseTraceState(state); valid {
					tc.State = s
				}
			}
			return tc, true
		}
	}
	if cfg.Vendor == "" {
		return TraceContext{}, false
	}
	return extractVendor(carrier, cfg.Vendor)
}

func extractVendor(carrier Carrier, vendor string) (TraceContext, bool) {
	traceIDRaw, ok := carrier.Get("x-" + vendor + "-trace-id")
	if !ok {
		return TraceContext{}, false
	}
	spanIDRaw, ok := carrier.Get("x-" + vendor + "-parent-id")
	if !ok {
		return TraceContext{}, false
	}
	low, err := parseUint64(traceIDRaw)
	if err != nil || low == 0 {
		return TraceContext{}, false
	}
	sid, err := parseUint64(spanIDRaw)
	if err != nil || sid == 0 {
		return TraceContext{}, false
	}
	var tid trace.TraceID
	putUint64(tid[8:], low)
	var span trace.SpanID
	putUint64(span[:], sid)

	flags := byte(0)
	if priority, ok := carrier.Get("x-" + vendor + "-sampling-priority"); ok {
		if p, err := parseInt(priority); err == nil && p > 0 {
			flags |= FlagSampled
		}
	} else {
		// no sampling priority signal: assume sampled, matching a vendor
		// that only propagates ids it has already decided to keep.
		flags |= FlagSampled
	}
	return TraceContext{TraceID: tid, SpanID: span, Flags: flags}, true
}
