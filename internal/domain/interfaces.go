// Package domain defines the canonical service interfaces shared across API
// layers (REST, WebSocket, client). Consumers should depend on these interfaces
// rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/nexalabs/impactgraph/internal/models"
)

// ImpactService answers impact questions against the serving snapshot.
type ImpactService interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.ImpactReport, error)
	Search(ctx context.Context, orgID, term string, limit int) ([]models.MetadataNode, error)
	GetNode(ctx context.Context, orgID, nodeID string) (*models.MetadataNode, error)
}

// SnapshotService replaces and describes per-org snapshots.
type SnapshotService interface {
	Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
	ListOrgs(ctx context.Context) ([]models.SnapshotSummary, error)
	GetOrg(ctx context.Context, orgID string) (*models.SnapshotSummary, error)
}

// SnapshotArchive persists accepted payloads so they survive restarts.
type SnapshotArchive interface {
	SaveSnapshot(ctx context.Context, snap models.ArchivedSnapshot) error
	LatestSnapshots(ctx context.Context) ([]models.ArchivedSnapshot, error)
	GetSnapshot(ctx context.Context, orgID string, version uint64) (*models.ArchivedSnapshot, error)
}

// AuditService defines audit log query operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
}

// Auditor is the minimal interface for recording audit entries.
// Used by services for fire-and-forget audit logging.
type Auditor interface {
	RecordAudit(ctx context.Context, orgID, action, entityID string, detail map[string]any) error
}

// EventPublisher fans snapshot lifecycle events out to live subscribers.
type EventPublisher interface {
	Publish(orgID, eventType string, data any)
}
