package metrics

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/brightloom/telemetry/internal/errs"
)

var negativeCounterErr = errs.New(errs.InvalidArgument, "counter Add rejects negative values")

func toAttrs(tags []Tag) []attribute.KeyValue {
	if len(tags) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, 0, len(tags))
	for _, t := range tags {
		attrs = append(attrs, toAttr(t))
	}
	return attrs
}

func toAttr(t Tag) attribute.KeyValue {
	switch v := t.Value.(type) {
	case bool:
		return attribute.Bool(t.Key, v)
	case int:
		return attribute.Int(t.Key, v)
	case int64:
		return attribute.Int64(t.Key, v)
	case float64:
		return attribute.Float64(t.Key, v)
	case string:
		return attribute.String(t.Key, v)
	case []bool:
		return attribute.BoolSlice(t.Key, v)
	case []int64:
		return attribute.Int64Slice(t.Key, v)
	case []float64:
		return attribute.Float64Slice(t.Key, v)
	case []string:
		return attribute.StringSlice(t.Key, v)
	default:
		return attribute.String(t.Key, fmt.Sprint(v))
	}
}
