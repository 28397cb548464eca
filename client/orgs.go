package client

import (
	"context"
	"net/url"
)

// OrgService reads serving snapshots.
type OrgService struct {
	c *Client
}

// List returns a summary of every org with a serving snapshot.
func (s *OrgService) List(ctx context.Context) ([]SnapshotSummary, error) {
	var resp struct {
		Orgs []SnapshotSummary `json:"orgs"`
	}
	if err := s.c.get(ctx, "/api/v1/orgs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orgs, nil
}

// Get returns the summary of one org's serving snapshot.
func (s *OrgService) Get(ctx context.Context, orgID string) (*SnapshotSummary, error) {
	var sum SnapshotSummary
	if err := s.c.get(ctx, "/api/v1/orgs/"+url.PathEscape(orgID), nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Node returns one node of an org's serving snapshot.
func (s *OrgService) Node(ctx context.Context, orgID, nodeID string) (*MetadataNode, error) {
	var node MetadataNode
	path := "/api/v1/orgs/" + url.PathEscape(orgID) + "/nodes/" + url.PathEscape(nodeID)
	if err := s.c.get(ctx, path, nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}
