package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// AuditService reads the audit log.
type AuditService struct {
	c *Client
}

// Query returns audit entries matching opts and whether more are available.
func (s *AuditService) Query(ctx context.Context, opts *AuditQueryOptions) ([]AuditEntry, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.OrgID != "" {
			params.Set("orgId", opts.OrgID)
		}
		if opts.Action != "" {
			params.Set("action", opts.Action)
		}
		if opts.EntityID != "" {
			params.Set("entityId", opts.EntityID)
		}
		if opts.Since != nil {
			params.Set("since", opts.Since.Format(time.RFC3339))
		}
		if opts.Until != nil {
			params.Set("until", opts.Until.Format(time.RFC3339))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}

	var resp struct {
		Data    []AuditEntry `json:"data"`
		HasMore bool         `json:"has_more"`
	}
	if err := s.c.get(ctx, "/api/v1/audit", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}
