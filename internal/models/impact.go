package models

import (
	"fmt"
	"strings"
)

// Direction selects which side of a node an analysis walks.
type Direction string

// Analysis directions.
const (
	// DirectionDependents walks incoming edges: what breaks if the node changes.
	DirectionDependents Direction = "dependents"
	// DirectionDependencies walks outgoing edges: what the node relies on.
	DirectionDependencies Direction = "dependencies"
)

// ParseDirection converts s to a Direction; empty means DirectionDependents.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DirectionDependents, nil
	case DirectionDependents, DirectionDependencies:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidRequest, s)
	}
}

// RiskLevel is the scored tier of one dependency. It shares values with Impact.
type RiskLevel = Impact

// DependencyResult is one node reached by an analysis.
type DependencyResult struct {
	Node             MetadataNode     `json:"node"`
	Distance         int              `json:"distance"`
	Direct           bool             `json:"direct"`
	DeclaredImpact   Impact           `json:"declaredImpact"`
	RiskScore        float64          `json:"riskScore"`
	RiskLevel        RiskLevel        `json:"riskLevel"`
	EstimatedRecords *int64           `json:"estimatedRecords,omitempty"`
	Path             []DependencyEdge `json:"path"`
}

// ImpactSummary aggregates an analysis.
type ImpactSummary struct {
	DirectCount      int               `json:"directCount"`
	IndirectCount    int               `json:"indirectCount"`
	TotalCount       int               `json:"totalCount"`
	EstimatedRecords *int64            `json:"estimatedRecords,omitempty"`
	OverallRisk      RiskLevel         `json:"overallRisk"`
	MaxRiskScore     float64           `json:"maxRiskScore"`
	ByRiskLevel      map[RiskLevel]int `json:"byRiskLevel"`
	ByType           map[NodeType]int  `json:"byType"`
	DepthLimited     bool              `json:"depthLimited"`
}

// Recommendation is deterministic advisory text derived from report contents.
type Recommendation struct {
	Code     string    `json:"code"`
	Severity RiskLevel `json:"severity"`
	Title    string    `json:"title"`
	Detail   string    `json:"detail"`
}

// ImpactReport is the full answer to "what breaks if NodeID changes".
type ImpactReport struct {
	OrgID           string             `json:"orgId"`
	NodeID          string             `json:"nodeId"`
	Node            MetadataNode       `json:"node"`
	Direction       Direction          `json:"direction"`
	MaxDepth        int                `json:"maxDepth"`
	SnapshotVersion uint64             `json:"snapshotVersion"`
	Summary         ImpactSummary      `json:"summary"`
	Dependencies    []DependencyResult `json:"dependencies"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// AnalyzeRequest is the payload for POST /analyze.
type AnalyzeRequest struct {
	OrgID     string `json:"orgId"`
	NodeID    string `json:"nodeId"`
	MaxDepth  *int   `json:"maxDepth,omitempty"`
	Direction string `json:"direction,omitempty"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

// Validate checks AnalyzeRequest fields.
func (r *AnalyzeRequest) Validate() error {
	if r.OrgID == "" {
		return ErrMissingOrgID
	}

	if len(r.OrgID) > MaxOrgIDLen {
		return ErrFieldTooLong("orgId", MaxOrgIDLen)
	}

	if r.NodeID == "" {
		return ErrMissingNodeID
	}

	if len(r.NodeID) > MaxNodeIDLen {
		return ErrFieldTooLong("nodeId", MaxNodeIDLen)
	}

	if r.MaxDepth != nil && *r.MaxDepth < 0 {
		return fmt.Errorf("%w: maxDepth must not be negative (0 means unbounded)", ErrInvalidRequest)
	}

	if r.TimeoutMs < 0 {
		return fmt.Errorf("%w: timeoutMs must not be negative", ErrInvalidRequest)
	}

	if _, err := ParseDirection(r.Direction); err != nil {
		return err
	}

	return nil
}
