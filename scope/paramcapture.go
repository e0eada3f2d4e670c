package scope

import (
	"fmt"
	"reflect"
)

// CaptureMode controls how much of a Begin call's parameters end up as
// CapturedParameters on the OperationScope.
type CaptureMode int

const (
	CaptureNone CaptureMode = iota
	CaptureNamesOnly
	CaptureNamesAndValues
	CaptureFull
)

// CaptureLimits bounds a single capture pass, independent of mode.
type CaptureLimits struct {
	MaxItems int
	MaxDepth int
}

// DefaultCaptureLimits matches the design note: up to 10 collection
// items, depth 2.
var DefaultCaptureLimits = CaptureLimits{MaxItems: 10, MaxDepth: 2}

// PIIDetector reports whether a named field must be skipped from
// capture.
type PIIDetector func(fieldName string) bool

// CapturedParameter is one entry of OperationScope.CapturedParameters.
type CapturedParameter struct {
	Name  string
	Value string
}

// CaptureParameters snapshots params under mode/limits, converting
// every captured value to a printable scalar; non-scalar values become
// their type name. A nil detector captures every field.
func CaptureParameters(mode CaptureMode, limits CaptureLimits, detector PIIDetector, params map[string]any) []CapturedParameter {
	if mode == CaptureNone || len(params) == 0 {
		return nil
	}
	if limits.MaxItems <= 0 {
		limits = DefaultCaptureLimits
	}

	out := make([]CapturedParameter, 0, len(params))
	count := 0
	for name, val := range params {
		if count >= limits.MaxItems {
			break
		}
		if detector != nil && detector(name) {
			continue
		}
		count++
		if mode == CaptureNamesOnly {
			out = append(out, CapturedParameter{Name: name})
			continue
		}
		out = append(out, CapturedParameter{Name: name, Value: captureValue(val, limits.MaxDepth, limits.MaxItems, mode == CaptureFull)})
	}
	return out
}

func captureValue(v any, depth, maxItems int, full bool) string {
	if v == nil {
		return "<nil>"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", v)
	case reflect.Slice, reflect.Array:
		if depth <= 0 || !full {
			return rv.Type().String()
		}
		n := rv.Len()
		items := make([]string, 0, n)
		for i := 0; i < n && i < maxItems; i++ {
			items = append(items, captureValue(rv.Index(i).Interface(), depth-1, maxItems, full))
		}
		return fmt.Sprintf("%v", items)
	default:
		return rv.Type().String()
	}
}
