// Package settings holds the bridge's mutable configuration: per-sensor
// alert thresholds, indicator visibility, and per-device automation flags.
// There is exactly one live snapshot per process, owned by a Manager.
package settings

import (
	"encoding/json"
	"math"
)

// Threshold is an alert band for one sensor.
type Threshold struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Settings is one immutable configuration snapshot. Maps are never shared
// between snapshots; Clone before handing one out of a locked section.
type Settings struct {
	Thresholds  map[string]Threshold `json:"thresholds"`
	Indicators  map[string]bool      `json:"indicators"`
	Automations map[string]bool      `json:"automations"`
}

// Defaults returns the compiled-in configuration. The key sets here are
// authoritative: Merge never adds or removes a key, so every snapshot in
// the process has exactly these keys.
func Defaults() Settings {
	return Settings{
		Thresholds: map[string]Threshold{
			"lux":  {Min: 500, Max: 10000},
			"soil": {Min: 30, Max: 70},
			"air":  {Min: 30, Max: 70},
			"temp": {Min: 15, Max: 30},
			"rssi": {Min: -70, Max: -50},
		},
		Indicators: map[string]bool{
			"lux":      true,
			"soil":     true,
			"temp":     true,
			"pressure": true,
			"rssi":     true,
		},
		Automations: map[string]bool{
			"led": false,
			"hum": false,
			"fan": false,
		},
	}
}

// Clone returns a deep copy of the snapshot.
func (s Settings) Clone() Settings {
	c := Settings{
		Thresholds:  make(map[string]Threshold, len(s.Thresholds)),
		Indicators:  make(map[string]bool, len(s.Indicators)),
		Automations: make(map[string]bool, len(s.Automations)),
	}
	for k, v := range s.Thresholds {
		c.Thresholds[k] = v
	}
	for k, v := range s.Indicators {
		c.Indicators[k] = v
	}
	for k, v := range s.Automations {
		c.Automations[k] = v
	}
	return c
}

// Partial is a client-supplied settings update. Values are decoded loosely
// (any JSON type) so that one mistyped field cannot fail the whole update;
// Merge ignores anything that is not well-typed, field by field.
type Partial struct {
	Thresholds  map[string]PartialThreshold `json:"thresholds"`
	Indicators  map[string]any              `json:"indicators"`
	Automations map[string]any              `json:"automations"`
}

// PartialThreshold carries candidate min/max values of any JSON type.
type PartialThreshold struct {
	Min any `json:"min"`
	Max any `json:"max"`
}

// Merge computes a new snapshot from base and a partial update. For each
// threshold key present in base, min and max are taken independently and
// only when the candidate is a finite number. Indicator and automation
// flags are taken only when the candidate is strictly boolean. Keys absent
// from base are ignored. Merge never fails; base is not modified.
func Merge(base Settings, p Partial) Settings {
	merged := base.Clone()

	for key, existing := range merged.Thresholds {
		candidate, ok := p.Thresholds[key]
		if !ok {
			continue
		}
		if v, ok := asFinite(candidate.Min); ok {
			existing.Min = v
		}
		if v, ok := asFinite(candidate.Max); ok {
			existing.Max = v
		}
		merged.Thresholds[key] = existing
	}

	for key := range merged.Indicators {
		if v, ok := p.Indicators[key].(bool); ok {
			merged.Indicators[key] = v
		}
	}

	for key := range merged.Automations {
		if v, ok := p.Automations[key].(bool); ok {
			merged.Automations[key] = v
		}
	}

	return merged
}

// asFinite accepts float64 and json.Number candidates; strings, bools,
// nulls, and non-finite values are rejected.
func asFinite(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
