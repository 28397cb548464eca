package api

import (
	"context"

	"github.com/nexalabs/impactgraph/internal/domain"
	"github.com/nexalabs/impactgraph/internal/models"
)

// ImpactService is the analysis surface used by ImpactHandler.
type ImpactService = domain.ImpactService

// SnapshotService is the sync and org-summary surface used by ImpactHandler and OrgHandler.
type SnapshotService = domain.SnapshotService

// AuditRepository defines audit query operations used by AuditHandler.
type AuditRepository interface {
	QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
}
