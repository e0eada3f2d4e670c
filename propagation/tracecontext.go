// Package propagation implements W3C trace-context parsing/emission and
// carrier-agnostic inject/extract, plus vendor-native and messaging
// carrier bindings. It has no dependency on the Operation Scope or
// Bounded Worker — it is pure parsing/emission over a Carrier contract.
package propagation

import (
	"encoding/hex"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// FlagSampled is bit 0 of TraceContext.Flags: "this trace is sampled".
const FlagSampled byte = 0x01

// MaxTraceStateLen is the cap on an accepted tracestate value.
const MaxTraceStateLen = 512

// TraceContext is the quadruple (TraceId, SpanId, Flags, TraceState).
// TraceId/SpanId reuse go.opentelemetry.io/otel/trace's value types as
// plain 128-bit/64-bit byte arrays; parsing, validation and emission
// below are this module's own, not delegated to OTel's propagator.
type TraceContext struct {
	TraceID trace.TraceID
	SpanID  trace.SpanID
	Flags   byte
	State   string
}

// Sampled reports whether the sampled flag bit is set.
func (tc TraceContext) Sampled() bool { return tc.Flags&FlagSampled != 0 }

// Valid reports whether TraceId and SpanId are both non-zero, per the
// data model's invariants.
func (tc TraceContext) Valid() bool {
	return tc.TraceID != (trace.TraceID{}) && tc.SpanID != (trace.SpanID{})
}

// Parse decodes a canonical "00-<32hex>-<16hex>-<2hex>[-...]" string.
// Hex is accepted in either case on input; Emit always produces
// lowercase. Any violation (wrong version, wrong length, zero trace or
// span id) returns ok=false rather than an error — a malformed inbound
// header is an ExtractorFailure, ignored silently by the caller.
func Parse(s string) (tc TraceContext, ok bool) {
	parts := strings.SplitN(s, "-", 5)
	if len(parts) < 4 {
		return TraceContext{}, false
	}
	if parts[0] != "00" {
		return TraceContext{}, false
	}
	traceIDHex, spanIDHex, flagsHex := parts[1], parts[2], parts[3]
	if len(traceIDHex) != 32 || len(spanIDHex) != 16 || len(flagsHex) != 2 {
		return TraceContext{}, false
	}
	traceIDBytes, err := hex.DecodeString(strings.ToLower(traceIDHex))
	if err != nil {
		return TraceContext{}, false
	}
	spanIDBytes, err := hex.DecodeString(strings.ToLower(spanIDHex))
	if err != nil {
		return TraceContext{}, false
	}
	flagsBytes, err := hex.DecodeString(strings.ToLower(flagsHex))
	if err != nil {
		return TraceContext{}, false
	}
	var tid trace.TraceID
	copy(tid[:], traceIDBytes)
	var sid trace.SpanID
	copy(sid[:], spanIDBytes)
	if tid == (trace.TraceID{}) || sid == (trace.SpanID{}) {
		return TraceContext{}, false
	}
	return TraceContext{TraceID: tid, SpanID: sid, Flags: flagsBytes[0]}, true
}

// Emit renders tc as the canonical lowercase traceparent wire form.
// Parse(Emit(tc)) == tc for every valid TraceContext.
func (tc TraceContext) Emit() string {
	var b strings.Builder
	b.Grow(55)
	b.WriteString("00-")
	b.WriteString(hex.EncodeToString(tc.TraceID[:]))
	b.WriteByte('-')
	b.WriteString(hex.EncodeToString(tc.SpanID[:]))
	b.WriteByte('-')
	b.WriteString(hexByte(tc.Flags))
	return b.String()
}

func hexByte(b byte) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0x0f]})
}

// ParseTraceState validates a tracestate value: non-empty and at most
// MaxTraceStateLen characters. An oversized or empty value is dropped
// (ok=false) without affecting the rest of the trace context.
func ParseTraceState(s string) (string, bool) {
	if s == "" || len(s) > MaxTraceStateLen {
		return "", false
	}
	return s, true
}

// lowDecimal returns the unsigned decimal representation of the low 64
// bits of a 128-bit trace id, used for vendor-native header emission.
func lowDecimal(id trace.TraceID) string {
	var low uint64
	for _, b := range id[8:] {
		low = low<<8 | uint64(b)
	}
	return strconv.FormatUint(low, 10)
}

func spanIDDecimal(id trace.SpanID) string {
	var v uint64
	for _, b := range id[:] {
		v = v<<8 | uint64(b)
	}
	return strconv.FormatUint(v, 10)
}
