package scoring

import (
	"math"

	"github.com/nexalabs/impactgraph/internal/models"
)

// Scorer applies a validated Policy.
type Scorer struct {
	policy Policy
}

// New returns a Scorer for p. p must already be valid.
func New(p Policy) *Scorer {
	return &Scorer{policy: p}
}

// Policy returns the policy in use.
func (s *Scorer) Policy() Policy { return s.policy }

// Score returns the rounded risk score for a node of type t reached over an
// edge of declared impact, distance hops from the root.
func (s *Scorer) Score(impact models.Impact, distance int, t models.NodeType) float64 {
	if distance < 1 {
		distance = 1
	}

	decay := 1 / math.Pow(float64(distance), s.policy.DecayExponent)
	raw := s.policy.BaseWeights[impact] * decay * s.policy.TypeWeights[t]

	return round4(raw)
}

// Level maps a score onto a risk level.
func (s *Scorer) Level(score float64) models.RiskLevel {
	switch {
	case score >= s.policy.Thresholds.High:
		return models.ImpactHigh
	case score >= s.policy.Thresholds.Medium:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}

// Assess returns both the score and its level.
func (s *Scorer) Assess(impact models.Impact, distance int, t models.NodeType) (float64, models.RiskLevel) {
	score := s.Score(impact, distance, t)
	return score, s.Level(score)
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
