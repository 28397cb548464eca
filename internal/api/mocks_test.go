package api_test

import (
	"context"

	"github.com/nexalabs/impactgraph/internal/models"
)

// mockImpactService implements api.ImpactService for testing.
type mockImpactService struct {
	analyzeFn func(ctx context.Context, req models.AnalyzeRequest) (*models.ImpactReport, error)
	searchFn  func(ctx context.Context, orgID, term string, limit int) ([]models.MetadataNode, error)
	getNodeFn func(ctx context.Context, orgID, nodeID string) (*models.MetadataNode, error)
}

func (m *mockImpactService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.ImpactReport, error) {
	return m.analyzeFn(ctx, req)
}

func (m *mockImpactService) Search(ctx context.Context, orgID, term string, limit int) ([]models.MetadataNode, error) {
	return m.searchFn(ctx, orgID, term, limit)
}

func (m *mockImpactService) GetNode(ctx context.Context, orgID, nodeID string) (*models.MetadataNode, error) {
	return m.getNodeFn(ctx, orgID, nodeID)
}

// mockSnapshotService implements api.SnapshotService for testing.
type mockSnapshotService struct {
	syncFn     func(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
	listOrgsFn func(ctx context.Context) ([]models.SnapshotSummary, error)
	getOrgFn   func(ctx context.Context, orgID string) (*models.SnapshotSummary, error)
}

func (m *mockSnapshotService) Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	return m.syncFn(ctx, req)
}

func (m *mockSnapshotService) ListOrgs(ctx context.Context) ([]models.SnapshotSummary, error) {
	return m.listOrgsFn(ctx)
}

func (m *mockSnapshotService) GetOrg(ctx context.Context, orgID string) (*models.SnapshotSummary, error) {
	return m.getOrgFn(ctx, orgID)
}

// mockAuditRepo implements api.AuditRepository for testing.
type mockAuditRepo struct {
	queryFn func(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
}

func (m *mockAuditRepo) QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryFn(ctx, opts)
}
