package models

import (
	"fmt"
	"strings"
)

// Impact is the severity a source system declares for one dependency.
type Impact string

// Declared impact tiers. RiskLevel reuses the same tiers.
const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// AllImpacts lists every Impact from most to least severe.
var AllImpacts = []Impact{ImpactHigh, ImpactMedium, ImpactLow}

// Valid reports whether i is one of AllImpacts.
func (i Impact) Valid() bool {
	switch i {
	case ImpactHigh, ImpactMedium, ImpactLow:
		return true
	default:
		return false
	}
}

// Rank orders impacts: high=3, medium=2, low=1, anything else 0.
func (i Impact) Rank() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// ParseImpact converts s (case-insensitive) to an Impact.
func ParseImpact(s string) (Impact, error) {
	i := Impact(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", fmt.Errorf("unknown impact %q", s)
	}

	return i, nil
}

// DependencyEdge states that From depends on To with the declared impact.
type DependencyEdge struct {
	From           string `json:"from" yaml:"from"`
	To             string `json:"to" yaml:"to"`
	DeclaredImpact Impact `json:"declaredImpact" yaml:"declaredImpact"`
}

// EdgeKey identifies an ordered node pair regardless of declared impact.
type EdgeKey struct {
	From string
	To   string
}

// Key returns the pair identity of the edge.
func (e DependencyEdge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To}
}

// String renders the edge as "from -> to (impact)".
func (e DependencyEdge) String() string {
	return e.From + " -> " + e.To + " (" + string(e.DeclaredImpact) + ")"
}
