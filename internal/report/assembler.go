// Package report turns a scored traversal into a ranked ImpactReport.
package report

import (
	"sort"

	"github.com/nexalabs/impactgraph/internal/graph"
	"github.com/nexalabs/impactgraph/internal/models"
	"github.com/nexalabs/impactgraph/internal/scoring"
)

// Input is everything Assemble needs. It carries no clock so the output is
// a pure function of its fields.
type Input struct {
	OrgID           string
	SnapshotVersion uint64
	Traversal       *graph.Traversal
	Scorer          *scoring.Scorer
}

// Assemble scores, ranks and summarises a traversal.
func Assemble(in Input) models.ImpactReport {
	tr := in.Traversal

	deps := make([]models.DependencyResult, 0, len(tr.Results))
	for _, r := range tr.Results {
		score, level := in.Scorer.Assess(r.Impact, r.Distance, r.Node.Type)
		deps = append(deps, models.DependencyResult{
			Node:             r.Node,
			Distance:         r.Distance,
			Direct:           r.Distance == 1,
			DeclaredImpact:   r.Impact,
			RiskScore:        score,
			RiskLevel:        level,
			EstimatedRecords: r.Node.EstimatedRecords,
			Path:             r.Path,
		})
	}

	Rank(deps)

	rep := models.ImpactReport{
		OrgID:           in.OrgID,
		NodeID:          tr.Root.ID,
		Node:            tr.Root,
		Direction:       tr.Direction,
		MaxDepth:        tr.MaxDepth,
		SnapshotVersion: in.SnapshotVersion,
		Summary:         summarize(deps, tr.DepthLimited),
		Dependencies:    deps,
	}
	rep.Recommendations = Recommend(&rep)

	return rep
}

// Rank sorts results by risk score descending, then distance ascending, then id.
func Rank(deps []models.DependencyResult) {
	sort.SliceStable(deps, func(i, j int) bool {
		a, b := deps[i], deps[j]
		if a.RiskScore != b.RiskScore {
			return a.RiskScore > b.RiskScore
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.Node.ID < b.Node.ID
	})
}

func summarize(deps []models.DependencyResult, depthLimited bool) models.ImpactSummary {
	s := models.ImpactSummary{
		TotalCount:   len(deps),
		OverallRisk:  models.ImpactLow,
		ByRiskLevel:  make(map[models.RiskLevel]int, len(models.AllImpacts)),
		ByType:       make(map[models.NodeType]int),
		DepthLimited: depthLimited,
	}

	for _, lvl := range models.AllImpacts {
		s.ByRiskLevel[lvl] = 0
	}

	var records int64
	haveRecords := false

	for i := range deps {
		d := &deps[i]
		if d.Direct {
			s.DirectCount++
		} else {
			s.IndirectCount++
		}

		s.ByRiskLevel[d.RiskLevel]++
		s.ByType[d.Node.Type]++

		if d.RiskScore > s.MaxRiskScore {
			s.MaxRiskScore = d.RiskScore
		}

		if d.RiskLevel.Rank() > s.OverallRisk.Rank() {
			s.OverallRisk = d.RiskLevel
		}

		if d.EstimatedRecords != nil {
			records += *d.EstimatedRecords
			haveRecords = true
		}
	}

	if haveRecords {
		s.EstimatedRecords = &records
	}

	return s
}
