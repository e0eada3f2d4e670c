package config

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/brightloom/telemetry/internal/errs"
	"github.com/brightloom/telemetry/scope"
)

// fileNode mirrors Node but with YAML/env-friendly primitive types;
// it is decoded from YAML via mapstructure and converted to Node.
type fileNode struct {
	SamplingRate         *float64          `mapstructure:"sampling_rate"`
	ParameterCaptureMode string            `mapstructure:"parameter_capture_mode"`
	RecordExceptions     *bool             `mapstructure:"record_exceptions"`
	TimeoutThresholdMs   *int64            `mapstructure:"timeout_threshold_ms"`
	Tags                 map[string]string `mapstructure:"tags"`
}

// fileConfig is the root YAML document shape.
type fileConfig struct {
	Global     fileNode            `mapstructure:"global"`
	Namespaces map[string]fileNode `mapstructure:"namespaces"`
	Types      map[string]fileNode `mapstructure:"types"`
	Methods    map[string]fileNode `mapstructure:"methods"`
}

// LoadYAML parses raw YAML bytes in two steps, matching the teacher's
// file-to-struct loaders: first a loose yaml.v3 unmarshal into a
// generic map (so malformed documents fail fast with a YAML-native
// error), then a strict mapstructure decode into the typed shape.
func LoadYAML(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, errs.Newf(errs.InvalidArgument, "invalid configuration yaml: %v", err)
	}

	var fc fileConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &fc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, errs.Newf(errs.InvalidArgument, "invalid configuration shape: %v", err)
	}

	cfg := Config{
		Global:     toNode(fc.Global),
		Namespaces: toNodeMap(fc.Namespaces),
		Types:      toNodeMap(fc.Types),
		Methods:    toNodeMap(fc.Methods),
	}
	return cfg, nil
}

func toNodeMap(in map[string]fileNode) map[string]Node {
	out := make(map[string]Node, len(in))
	for k, v := range in {
		out[k] = toNode(v)
	}
	return out
}

func toNode(fn fileNode) Node {
	n := Node{
		SamplingRate:     fn.SamplingRate,
		RecordExceptions: fn.RecordExceptions,
		Tags:             fn.Tags,
	}
	if fn.TimeoutThresholdMs != nil {
		d := time.Duration(*fn.TimeoutThresholdMs) * time.Millisecond
		n.TimeoutThreshold = &d
	}
	if fn.ParameterCaptureMode != "" {
		if mode, ok := parseCaptureMode(fn.ParameterCaptureMode); ok {
			n.ParameterCaptureMode = &mode
		}
	}
	return n
}

func parseCaptureMode(s string) (scope.CaptureMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return scope.CaptureNone, true
	case "namesonly":
		return scope.CaptureNamesOnly, true
	case "namesandvalues":
		return scope.CaptureNamesAndValues, true
	case "full":
		return scope.CaptureFull, true
	default:
		return scope.CaptureNone, false
	}
}
