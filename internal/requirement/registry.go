// Package requirement holds the canonical requirement registry and the
// threshold resolver that scores measured values against workload levels.
package requirement

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var registryYAML []byte

// Direction tells which side of the threshold passes.
type Direction string

const (
	// LTE passes when the measured value is at or below the threshold
	// (rate-of-bad measurements).
	LTE Direction = "lte"
	// GTE passes when the measured value is at or above the threshold
	// (coverage measurements).
	GTE Direction = "gte"
)

// Level is one workload tier.
type Level string

const (
	L1 Level = "l1"
	L2 Level = "l2"
	L3 Level = "l3"
)

// AllLevels orders the workload tiers from least to most demanding.
var AllLevels = []Level{L1, L2, L3}

// Factors lists the six canonical quality dimensions.
var Factors = []string{"clean", "contextual", "consumable", "current", "correlated", "compliant"}

// WorkloadLevel maps a workload name accepted on the CLI to its tier.
func WorkloadLevel(workload string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(workload)) {
	case "analytics", "l1":
		return L1, true
	case "rag", "l2":
		return L2, true
	case "training", "l3":
		return L3, true
	}
	return "", false
}

// Tiers is the threshold triple for one requirement.
type Tiers struct {
	L1 float64 `yaml:"l1" json:"l1"`
	L2 float64 `yaml:"l2" json:"l2"`
	L3 float64 `yaml:"l3" json:"l3"`
}

// At returns the threshold for a level.
func (t Tiers) At(level Level) float64 {
	switch level {
	case L2:
		return t.L2
	case L3:
		return t.L3
	default:
		return t.L1
	}
}

// Def describes one canonical requirement.
type Def struct {
	Key           string    `yaml:"key"`
	Factor        string    `yaml:"factor"`
	Direction     Direction `yaml:"direction"`
	Informational bool      `yaml:"informational"`
	Description   string    `yaml:"description"`
	Thresholds    Tiers     `yaml:"thresholds"`
}

// Registry is the canonical requirement set, loaded once from the embedded
// document and immutable afterwards.
type Registry struct {
	defs  map[string]Def
	order []string
}

var builtin = mustLoadRegistry(registryYAML)

// Default returns the built-in registry.
func Default() *Registry { return builtin }

func mustLoadRegistry(data []byte) *Registry {
	r, err := loadRegistry(data)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded requirement registry: %v", err))
	}
	return r
}

func loadRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Requirements []Def `yaml:"requirements"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse requirement registry: %w", err)
	}

	r := &Registry{defs: make(map[string]Def, len(doc.Requirements))}
	for _, def := range doc.Requirements {
		if def.Key == "" {
			return nil, fmt.Errorf("requirement with empty key")
		}
		if _, dup := r.defs[def.Key]; dup {
			return nil, fmt.Errorf("duplicate requirement key %q", def.Key)
		}
		if def.Direction == "" {
			def.Direction = LTE
		}
		r.defs[def.Key] = def
		r.order = append(r.order, def.Key)
	}
	return r, nil
}

// Get returns the definition for a requirement key.
func (r *Registry) Get(key string) (Def, bool) {
	def, ok := r.defs[key]
	return def, ok
}

// Keys returns requirement keys in registry order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// Informational reports whether a requirement is recorded but never scored.
func (r *Registry) Informational(key string) bool {
	def, ok := r.defs[key]
	return ok && def.Informational
}
