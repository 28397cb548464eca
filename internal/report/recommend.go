package report

import (
	"fmt"

	"github.com/nexalabs/impactgraph/internal/models"
)

// Recommendation codes, in evaluation order.
const (
	CodePhaseRollout       = "phase_rollout"
	CodeRegressionTestCopy = "regression_test_copy"
	CodeMaintenanceWindow  = "maintenance_window"
	CodeReviewReports      = "review_reports"
	CodeDepthLimited       = "depth_limited"
	CodeIsolatedChange     = "isolated_change"
	CodeStandardReview     = "standard_review"
)

type rule struct {
	code     string
	severity models.RiskLevel
	title    string
	match    func(r *models.ImpactReport) (int, bool)
	detail   func(r *models.ImpactReport, n int) string
}

var rules = []rule{
	{
		code:     CodePhaseRollout,
		severity: models.ImpactHigh,
		title:    "Phase the rollout",
		match: countWhere(func(d *models.DependencyResult) bool {
			return d.Direct && d.RiskLevel == models.ImpactHigh
		}),
		detail: func(r *models.ImpactReport, n int) string {
			return fmt.Sprintf("%d direct dependent(s) of %s are high risk. Deploy in stages and verify each before continuing.", n, r.Node.Name)
		},
	},
	{
		code:     CodeRegressionTestCopy,
		severity: models.ImpactHigh,
		title:    "Run regression tests in a non-production copy first",
		match: countWhere(func(d *models.DependencyResult) bool {
			return !d.Direct && d.RiskLevel == models.ImpactHigh
		}),
		detail: func(_ *models.ImpactReport, n int) string {
			return fmt.Sprintf("%d indirect dependent(s) are high risk. Exercise them in a sandbox before deploying.", n)
		},
	},
	{
		code:     CodeMaintenanceWindow,
		severity: models.ImpactHigh,
		title:    "Schedule the deployment in a maintenance window",
		match: countWhere(func(d *models.DependencyResult) bool {
			return d.RiskLevel == models.ImpactHigh && d.Node.Type.ControlsProcess()
		}),
		detail: func(_ *models.ImpactReport, n int) string {
			return fmt.Sprintf("%d high-risk flow, trigger or validation rule(s) run automatically on record changes.", n)
		},
	},
	{
		code:     CodeReviewReports,
		severity: models.ImpactMedium,
		title:    "Notify report owners",
		match: countWhere(func(d *models.DependencyResult) bool {
			return d.Node.Type == models.NodeTypeReport
		}),
		detail: func(_ *models.ImpactReport, n int) string {
			return fmt.Sprintf("%d report(s) read this element and may show changed or missing data.", n)
		},
	},
	{
		code:     CodeDepthLimited,
		severity: models.ImpactMedium,
		title:    "Re-run without a depth limit",
		match: func(r *models.ImpactReport) (int, bool) {
			return 0, r.Summary.DepthLimited
		},
		detail: func(r *models.ImpactReport, _ int) string {
			return fmt.Sprintf("The analysis stopped at depth %d and more dependents exist beyond it.", r.MaxDepth)
		},
	},
	{
		code:     CodeIsolatedChange,
		severity: models.ImpactLow,
		title:    "No dependents found",
		match: func(r *models.ImpactReport) (int, bool) {
			return 0, r.Summary.TotalCount == 0
		},
		detail: func(r *models.ImpactReport, _ int) string {
			return fmt.Sprintf("Nothing in the current snapshot is connected to %s in this direction.", r.Node.Name)
		},
	},
	{
		code:     CodeStandardReview,
		severity: models.ImpactLow,
		title:    "Standard change review",
		match: func(r *models.ImpactReport) (int, bool) {
			return r.Summary.TotalCount, r.Summary.TotalCount > 0 && r.Summary.ByRiskLevel[models.ImpactHigh] == 0
		},
		detail: func(_ *models.ImpactReport, n int) string {
			return fmt.Sprintf("%d dependent(s) found, none high risk.", n)
		},
	},
}

func countWhere(pred func(d *models.DependencyResult) bool) func(r *models.ImpactReport) (int, bool) {
	return func(r *models.ImpactReport) (int, bool) {
		n := 0
		for i := range r.Dependencies {
			if pred(&r.Dependencies[i]) {
				n++
			}
		}
		return n, n > 0
	}
}

// Recommend evaluates the rule table against r in order.
func Recommend(r *models.ImpactReport) []models.Recommendation {
	out := make([]models.Recommendation, 0, 2)

	for _, rl := range rules {
		n, ok := rl.match(r)
		if !ok {
			continue
		}

		out = append(out, models.Recommendation{
			Code:     rl.code,
			Severity: rl.severity,
			Title:    rl.title,
			Detail:   rl.detail(r, n),
		})
	}

	return out
}
