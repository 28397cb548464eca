package client

import "context"

// SyncService submits org snapshots.
type SyncService struct {
	c *Client
}

// Submit replaces an org's snapshot with req. A payload that does not form
// a valid graph fails with an *APIError whose Problems lists every defect;
// see IsRejected.
func (s *SyncService) Submit(ctx context.Context, req *SyncRequest) (*SyncResult, error) {
	var result SyncResult
	if err := s.c.post(ctx, "/api/v1/sync", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
