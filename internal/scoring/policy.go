// Package scoring converts traversal results into risk scores and levels.
package scoring

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nexalabs/impactgraph/internal/models"
)

// Thresholds are the inclusive lower bounds of the high and medium risk levels.
type Thresholds struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// Policy holds every tunable input of the risk formula
// score = base(impact) / distance^DecayExponent * type(nodeType).
type Policy struct {
	BaseWeights   map[models.Impact]float64   `yaml:"base_weights" json:"baseWeights"`
	TypeWeights   map[models.NodeType]float64 `yaml:"type_weights" json:"typeWeights"`
	Thresholds    Thresholds                  `yaml:"thresholds" json:"thresholds"`
	DecayExponent float64                     `yaml:"decay_exponent" json:"decayExponent"`
}

// DefaultPolicy returns the built-in weighting.
func DefaultPolicy() Policy {
	return Policy{
		BaseWeights: map[models.Impact]float64{
			models.ImpactHigh:   3,
			models.ImpactMedium: 2,
			models.ImpactLow:    1,
		},
		TypeWeights: map[models.NodeType]float64{
			models.NodeTypeObject:     1.0,
			models.NodeTypeField:      1.0,
			models.NodeTypeFlow:       1.2,
			models.NodeTypeTrigger:    1.2,
			models.NodeTypeReport:     0.8,
			models.NodeTypeValidation: 1.2,
		},
		Thresholds:    Thresholds{High: 2.4, Medium: 1.0},
		DecayExponent: 1,
	}
}

// LoadPolicyFile reads a YAML policy from path. Keys absent from the file
// keep their default values. The result is validated.
func LoadPolicyFile(path string) (Policy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config.
	if err != nil {
		return Policy{}, fmt.Errorf("reading scoring policy: %w", err)
	}

	return ParsePolicy(data)
}

// policyOverlay mirrors Policy with pointer scalars so a value present in
// the document wins even when it is zero.
type policyOverlay struct {
	BaseWeights map[models.Impact]float64   `yaml:"base_weights"`
	TypeWeights map[models.NodeType]float64 `yaml:"type_weights"`
	Thresholds  struct {
		High   *float64 `yaml:"high"`
		Medium *float64 `yaml:"medium"`
	} `yaml:"thresholds"`
	DecayExponent *float64 `yaml:"decay_exponent"`
}

// ParsePolicy decodes a YAML policy document over DefaultPolicy and validates
// it. Unknown keys are rejected.
func ParsePolicy(data []byte) (Policy, error) {
	var overlay policyOverlay

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&overlay); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("parsing scoring policy: %w", err)
	}

	p := DefaultPolicy()

	for k, v := range overlay.BaseWeights {
		p.BaseWeights[k] = v
	}

	for k, v := range overlay.TypeWeights {
		p.TypeWeights[k] = v
	}

	if v := overlay.Thresholds.High; v != nil {
		p.Thresholds.High = *v
	}

	if v := overlay.Thresholds.Medium; v != nil {
		p.Thresholds.Medium = *v
	}

	if v := overlay.DecayExponent; v != nil {
		p.DecayExponent = *v
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}

	return p, nil
}

// Validate checks that every impact and node type is weighted and that all
// values are finite and ordered. It returns a *models.ConfigError.
func (p Policy) Validate() error {
	for _, i := range models.AllImpacts {
		w, ok := p.BaseWeights[i]
		if !ok {
			return &models.ConfigError{Field: "base_weights." + string(i), Reason: "missing"}
		}
		if err := checkWeight("base_weights."+string(i), w); err != nil {
			return err
		}
	}

	for k := range p.BaseWeights {
		if !k.Valid() {
			return &models.ConfigError{Field: "base_weights." + string(k), Reason: "unknown impact"}
		}
	}

	for _, t := range models.AllNodeTypes {
		w, ok := p.TypeWeights[t]
		if !ok {
			return &models.ConfigError{Field: "type_weights." + string(t), Reason: "missing"}
		}
		if err := checkWeight("type_weights."+string(t), w); err != nil {
			return err
		}
	}

	for k := range p.TypeWeights {
		if !k.Valid() {
			return &models.ConfigError{Field: "type_weights." + string(k), Reason: "unknown node type"}
		}
	}

	if err := checkWeight("thresholds.medium", p.Thresholds.Medium); err != nil {
		return err
	}

	if err := checkWeight("thresholds.high", p.Thresholds.High); err != nil {
		return err
	}

	if p.Thresholds.High < p.Thresholds.Medium {
		return &models.ConfigError{Field: "thresholds", Reason: "high must be >= medium"}
	}

	if math.IsNaN(p.DecayExponent) || math.IsInf(p.DecayExponent, 0) || p.DecayExponent <= 0 {
		return &models.ConfigError{Field: "decay_exponent", Reason: "must be a finite positive number"}
	}

	return nil
}

func checkWeight(field string, w float64) error {
	switch {
	case math.IsNaN(w) || math.IsInf(w, 0):
		return &models.ConfigError{Field: field, Reason: "must be finite"}
	case w < 0:
		return &models.ConfigError{Field: field, Reason: "must not be negative"}
	default:
		return nil
	}
}
