package config

import (
	"os"
	"strconv"
)

// ApplyEnvOverrides overlays environment-variable overrides onto the
// Global node, following the `<VENDOR>_<OPTION>` convention (e.g.
// BRIGHTLOOM_SAMPLING_RATE, BRIGHTLOOM_SERVICE). Only variables that
// are actually set change anything; everything else is left as loaded
// from YAML.
func ApplyEnvOverrides(cfg Config, vendor string) Config {
	if rate, ok := envFloat(vendor + "_SAMPLING_RATE"); ok {
		cfg.Global.SamplingRate = &rate
	}
	if record, ok := envBool(vendor + "_RECORD_EXCEPTIONS"); ok {
		cfg.Global.RecordExceptions = &record
	}
	if service, ok := os.LookupEnv(vendor + "_SERVICE"); ok && service != "" {
		if cfg.Global.Tags == nil {
			cfg.Global.Tags = map[string]string{}
		}
		cfg.Global.Tags["service"] = service
	}
	return cfg
}

func envFloat(name string) (float64, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(name string) (bool, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
