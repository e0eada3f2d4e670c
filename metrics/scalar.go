package metrics

import "fmt"

// formatScalar renders a tag value using Go's default (invariant,
// locale-independent) formatting — %v already emits '.' for floats
// regardless of the OS locale, matching the fallback backend's
// requirement to never emit locale-specific separators like ','.
func formatScalar(v any) string {
	switch val := v.(type) {
	case float64:
		return fmt.Sprintf("%g", val)
	case float32:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatTagsOrdered renders tags in their original call order, as
// required by the fallback metric line format (§6): unordered input
// tag sets are emitted in original call order, not sorted.
func formatTagsOrdered(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	out := name
	for _, t := range tags {
		out += "." + t.Key + "=" + formatScalar(t.Value)
	}
	return out
}
