package propagation

import (
	"testing"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmitRoundTrip(t *testing.T) {
	const raw = "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"
	tc, ok := Parse(raw)
	require.True(t, ok)
	assert.True(t, tc.Sampled())
	assert.Equal(t, raw, tc.Emit())
}

func TestParseUppercaseAcceptedEmitLowercase(t *testing.T) {
	const raw = "00-0AF7651916CD43DD8448EB211C80319C-B7AD6B7169203331-01"
	tc, ok := Parse(raw)
	require.True(t, ok)
	assert.Equal(t, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01", tc.Emit())
}

func TestParseRejectsZeroIDs(t *testing.T) {
	_, ok := Parse("00-00000000000000000000000000000000-b7ad6b7169203331-01")
	assert.False(t, ok)

	_, ok = Parse("00-0af7651916cd43dd8448eb211c80319c-0000000000000000-01")
	assert.False(t, ok)
}

func TestParseRejectsWrongVersionOrLength(t *testing.T) {
	_, ok := Parse("01-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	assert.False(t, ok)

	_, ok = Parse("00-short-b7ad6b7169203331-01")
	assert.False(t, ok)
}

func TestParseTraceStateCapsLength(t *testing.T) {
	_, ok := ParseTraceState("")
	assert.False(t, ok)

	long := make([]byte, MaxTraceStateLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, ok = ParseTraceState(string(long))
	assert.False(t, ok)

	s, ok := ParseTraceState("congo=t61rcWkgMzE")
	assert.True(t, ok)
	assert.Equal(t, "congo=t61rcWkgMzE", s)
}

func TestInjectExtractHTTPHeaderRoundTrip(t *testing.T) {
	tc, ok := Parse("00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	require.True(t, ok)
	tc.State = "congo=t61rcWkgMzE"

	headers := make(map[string][]string)
	carrier := HTTPHeaderCarrier(headers)
	Inject(tc, carrier, VendorConfig{})

	got, ok := Extract(carrier, VendorConfig{})
	require.True(t, ok)
	assert.Equal(t, tc.TraceID, got.TraceID)
	assert.Equal(t, tc.SpanID, got.SpanID)
	assert.Equal(t, tc.Flags, got.Flags)
	assert.Equal(t, tc.State, got.State)
}

func TestInjectVendorHeaders(t *testing.T) {
	tc, ok := Parse("00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	require.True(t, ok)

	carrier := TextMapCarrier{}
	Inject(tc, carrier, VendorConfig{Vendor: "acme", Enabled: true})

	_, ok = carrier.Get("x-acme-trace-id")
	assert.True(t, ok)
	_, ok = carrier.Get("x-acme-parent-id")
	assert.True(t, ok)
}

func TestExtractFallsBackToVendorHeaders(t *testing.T) {
	carrier := TextMapCarrier{
		"x-acme-trace-id":  "10922603236556030430",
		"x-acme-parent-id": "13235353014701265713",
	}
	tc, ok := Extract(carrier, VendorConfig{Vendor: "acme"})
	require.True(t, ok)
	assert.True(t, tc.Valid())
}

func TestKafkaHeaderCarrierRoundTrip(t *testing.T) {
	tc, ok := Parse("00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	require.True(t, ok)

	var headers []kafka.Header
	carrier := KafkaHeaderCarrier{Headers: &headers}
	Inject(tc, carrier, VendorConfig{})

	got, ok := Extract(carrier, VendorConfig{})
	require.True(t, ok)
	assert.Equal(t, tc.TraceID, got.TraceID)
	assert.Equal(t, tc.SpanID, got.SpanID)
}

func TestSOAPHeaderCarrierRoundTrip(t *testing.T) {
	tc, ok := Parse("00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	require.True(t, ok)

	var elems []SOAPHeaderXML
	carrier := SOAPHeaderCarrier{Headers: &elems}
	Inject(tc, carrier, VendorConfig{})

	got, ok := Extract(carrier, VendorConfig{})
	require.True(t, ok)
	assert.Equal(t, tc.TraceID, got.TraceID)
	assert.Equal(t, tc.SpanID, got.SpanID)
}
