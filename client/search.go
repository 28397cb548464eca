package client

import (
	"context"
	"net/url"
	"strconv"
)

// SearchService finds nodes by name or description.
type SearchService struct {
	c *Client
}

// Nodes searches an org's serving snapshot. limit <= 0 returns every match.
func (s *SearchService) Nodes(ctx context.Context, orgID, term string, limit int) ([]MetadataNode, error) {
	params := url.Values{}
	params.Set("orgId", orgID)
	params.Set("term", term)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Nodes []MetadataNode `json:"nodes"`
	}
	if err := s.c.get(ctx, "/api/v1/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}
