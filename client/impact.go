package client

import "context"

// ImpactService runs dependency impact analyses.
type ImpactService struct {
	c *Client
}

// Analyze reports what depends on nodeID, i.e. what may break if it changes.
// opts may be nil.
func (s *ImpactService) Analyze(ctx context.Context, orgID, nodeID string, opts *AnalyzeOptions) (*ImpactReport, error) {
	return s.run(ctx, orgID, nodeID, "dependents", opts)
}

// Dependencies reports what nodeID itself relies on. opts may be nil.
func (s *ImpactService) Dependencies(ctx context.Context, orgID, nodeID string, opts *AnalyzeOptions) (*ImpactReport, error) {
	return s.run(ctx, orgID, nodeID, "dependencies", opts)
}

func (s *ImpactService) run(ctx context.Context, orgID, nodeID, direction string, opts *AnalyzeOptions) (*ImpactReport, error) {
	req := analyzeRequest{OrgID: orgID, NodeID: nodeID, Direction: direction}
	if opts != nil {
		req.MaxDepth = opts.MaxDepth
		req.TimeoutMs = opts.TimeoutMs
	}

	var report ImpactReport
	if err := s.c.post(ctx, "/api/v1/analyze", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
