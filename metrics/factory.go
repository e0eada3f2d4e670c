package metrics

import (
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/brightloom/telemetry/internal/log"
)

// NewRecorder probes the native backend by attempting a trivial
// instrument construction inside a guarded scope; if it fails for any
// reason, Fallback is chosen instead. The probe is not memoized — a
// later call may retry native construction and succeed.
func NewRecorder(meter otelmetric.Meter, fallbackSink EventSink) Recorder {
	if meter != nil {
		if probeNative(meter) {
			return NewNativeRecorder(meter)
		}
		log.Warn("native metrics backend unavailable, falling back to in-process recorder")
	}
	return NewFallbackRecorder(fallbackSink)
}

func probeNative(meter otelmetric.Meter) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	_, err := meter.Int64Counter("telemetry.probe")
	return err == nil
}
