// Package config implements the hierarchical Global/Namespace/Type/
// Method configuration model: YAML-backed, merged by longest-prefix
// and exact-match resolution, with a hot-reload subscription that
// delivers (old, new) atomically — the same file-to-struct shape as
// the teacher's stableconfig loader (fileContentsToConfig), generalized
// from a flat key/value map to the nested scope tree this spec needs.
package config

import (
	"strings"
	"time"

	"github.com/brightloom/telemetry/scope"
)

// Node is one scope's overridable option set. A nil field means
// "inherit from the parent scope".
type Node struct {
	SamplingRate         *float64
	ParameterCaptureMode *scope.CaptureMode
	RecordExceptions     *bool
	TimeoutThreshold     *time.Duration
	Tags                 map[string]string
}

func (n Node) mergeOnto(base Node) Node {
	out := base
	if n.SamplingRate != nil {
		out.SamplingRate = n.SamplingRate
	}
	if n.ParameterCaptureMode != nil {
		out.ParameterCaptureMode = n.ParameterCaptureMode
	}
	if n.RecordExceptions != nil {
		out.RecordExceptions = n.RecordExceptions
	}
	if n.TimeoutThreshold != nil {
		out.TimeoutThreshold = n.TimeoutThreshold
	}
	if len(n.Tags) > 0 {
		merged := make(map[string]string, len(base.Tags)+len(n.Tags))
		for k, v := range base.Tags {
			merged[k] = v
		}
		for k, v := range n.Tags {
			merged[k] = v
		}
		out.Tags = merged
	}
	return out
}

// Config is the full tree: one Global node, namespace nodes keyed by
// string prefix, type nodes keyed by exact type name, and method nodes
// keyed by exact method signature.
type Config struct {
	Global     Node
	Namespaces map[string]Node
	Types      map[string]Node
	Methods    map[string]Node
}

// Resolve merges Global -> longest matching Namespace prefix -> exact
// Type -> exact Method, child overriding parent field-by-field.
func (c Config) Resolve(namespace, typeName, methodSig string) Node {
	resolved := c.Global

	if ns, ok := c.longestNamespaceMatch(namespace); ok {
		resolved = ns.mergeOnto(resolved)
	}
	if t, ok := c.Types[typeName]; ok {
		resolved = t.mergeOnto(resolved)
	}
	if m, ok := c.Methods[methodSig]; ok {
		resolved = m.mergeOnto(resolved)
	}
	return resolved
}

func (c Config) longestNamespaceMatch(namespace string) (Node, bool) {
	var bestPrefix string
	var best Node
	found := false
	for prefix, node := range c.Namespaces {
		if !strings.HasPrefix(namespace, prefix) {
			continue
		}
		if len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			best = node
			found = true
		}
	}
	return best, found
}
