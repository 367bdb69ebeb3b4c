package requirement

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override adjusts one requirement's targets. Absent level values keep the
// defaults; a non-empty Direction flips the comparison.
type Override struct {
	L1        *float64  `yaml:"l1" json:"l1"`
	L2        *float64  `yaml:"l2" json:"l2"`
	L3        *float64  `yaml:"l3" json:"l3"`
	Direction Direction `yaml:"direction" json:"direction"`
}

// Thresholds is the immutable merge of registry defaults with user overrides.
type Thresholds struct {
	registry *Registry
	tiers    map[string]Tiers
	dirs     map[string]Direction
}

// Thresholds merges the registry defaults with overrides keyed by
// requirement. A nil or empty override map yields the pure defaults.
func (r *Registry) Thresholds(overrides map[string]Override) *Thresholds {
	t := &Thresholds{
		registry: r,
		tiers:    make(map[string]Tiers, len(r.defs)),
		dirs:     make(map[string]Direction, len(r.defs)),
	}
	for key, def := range r.defs {
		t.tiers[key] = def.Thresholds
		t.dirs[key] = def.Direction
	}
	for key, ov := range overrides {
		tiers := t.tiers[key]
		if ov.L1 != nil {
			tiers.L1 = *ov.L1
		}
		if ov.L2 != nil {
			tiers.L2 = *ov.L2
		}
		if ov.L3 != nil {
			tiers.L3 = *ov.L3
		}
		t.tiers[key] = tiers
		if ov.Direction == LTE || ov.Direction == GTE {
			t.dirs[key] = ov.Direction
		} else if _, known := t.dirs[key]; !known {
			t.dirs[key] = LTE
		}
	}
	return t
}

// LoadOverrides parses a thresholds override document. Both YAML and JSON
// bodies are accepted.
func LoadOverrides(path string) (map[string]Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds file %s: %w", path, err)
	}
	var overrides map[string]Override
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds file %s: %w", path, err)
	}
	return overrides, nil
}

// Tiers returns the resolved threshold triple for a requirement. Unknown
// requirements resolve to zeroes.
func (t *Thresholds) Tiers(req string) Tiers {
	return t.tiers[req]
}

// Direction returns the resolved comparison direction for a requirement.
// Unknown requirements compare lte.
func (t *Thresholds) Direction(req string) Direction {
	if d, ok := t.dirs[req]; ok {
		return d
	}
	return LTE
}

// Informational reports whether the requirement is recorded but never scored.
func (t *Thresholds) Informational(req string) bool {
	return t.registry.Informational(req)
}

// Passes evaluates the scoring predicate: informational requirements always
// pass, a missing measured value always fails, and otherwise the value is
// compared against the level's threshold in the resolved direction.
func (t *Thresholds) Passes(req string, v *float64, level Level) bool {
	if t.Informational(req) {
		return true
	}
	if v == nil {
		return false
	}
	threshold := t.Tiers(req).At(level)
	if t.Direction(req) == GTE {
		return *v >= threshold
	}
	return *v <= threshold
}
