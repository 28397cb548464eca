package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nexalabs/impactgraph/internal/domain"
	"github.com/nexalabs/impactgraph/internal/graph"
	"github.com/nexalabs/impactgraph/internal/metrics"
	"github.com/nexalabs/impactgraph/internal/models"
)

// Event types published on snapshot lifecycle changes.
const (
	EventSnapshotSwapped = "snapshot.swapped"
	EventSyncRejected    = "sync.rejected"
)

// archiveTimeout bounds a best-effort archive write after a swap.
const archiveTimeout = 10 * time.Second

// Compile-time check: *SnapshotService must satisfy domain.SnapshotService.
var _ domain.SnapshotService = (*SnapshotService)(nil)

// SnapshotService builds and swaps per-org snapshots.
type SnapshotService struct {
	registry    *SnapshotRegistry
	archive     domain.SnapshotArchive
	events      domain.EventPublisher
	auditWorker AuditEnqueuer
	log         *logrus.Logger
	flight      singleflight.Group
	now         func() time.Time
}

// NewSnapshotService creates a SnapshotService. archive, events and
// auditWorker may be nil.
func NewSnapshotService(
	registry *SnapshotRegistry,
	archive domain.SnapshotArchive,
	events domain.EventPublisher,
	auditWorker AuditEnqueuer,
	log *logrus.Logger,
) *SnapshotService {
	return &SnapshotService{
		registry:    registry,
		archive:     archive,
		events:      events,
		auditWorker: auditWorker,
		log:         log,
		now:         time.Now,
	}
}

// Sync validates and builds req into a new snapshot and swaps it in.
// Concurrent identical payloads for the same org share one build.
func (s *SnapshotService) Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	digest := req.Digest()
	leader := false

	v, err, _ := s.flight.Do(req.OrgID+":"+digest, func() (any, error) {
		leader = true
		return s.replace(context.WithoutCancel(ctx), req, digest)
	})
	if err != nil {
		return nil, err
	}

	res := *v.(*models.SyncResult)
	if !leader {
		res.Coalesced = true
		metrics.BuildsCoalesced.Inc()
	}

	return &res, nil
}

func (s *SnapshotService) replace(ctx context.Context, req models.SyncRequest, digest string) (*models.SyncResult, error) {
	start := time.Now()

	snap, err := s.registry.Replace(req.OrgID, func(version uint64) (*Snapshot, error) {
		g, err := graph.Build(req.OrgID, req.Nodes, req.Edges)
		if err != nil {
			return nil, err
		}
		return &Snapshot{OrgID: req.OrgID, Version: version, Digest: digest, BuiltAt: s.now().UTC(), Graph: g}, nil
	})
	if err != nil {
		s.rejected(req.OrgID, err)
		return nil, err
	}

	stats := snap.Graph.Stats()

	metrics.SyncsTotal.WithLabelValues("accepted").Inc()
	metrics.SnapshotNodes.WithLabelValues(snap.OrgID).Set(float64(stats.NodeCount))
	metrics.SnapshotEdges.WithLabelValues(snap.OrgID).Set(float64(stats.EdgeCount))

	s.log.WithFields(logrus.Fields{
		"org_id":      snap.OrgID,
		"version":     snap.Version,
		"nodes":       stats.NodeCount,
		"edges":       stats.EdgeCount,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("snapshot.swapped")

	s.archiveSnapshot(ctx, snap, req)

	auditAsync(s.auditWorker, snap.OrgID, models.AuditActionSync, snap.Digest, map[string]any{
		"version":    snap.Version,
		"node_count": stats.NodeCount,
		"edge_count": stats.EdgeCount,
	})

	s.publish(snap.OrgID, EventSnapshotSwapped, snap.Summary())

	return &models.SyncResult{
		Accepted:  true,
		OrgID:     snap.OrgID,
		Version:   snap.Version,
		NodeCount: stats.NodeCount,
		EdgeCount: stats.EdgeCount,
	}, nil
}

func (s *SnapshotService) rejected(orgID string, err error) {
	metrics.SyncsTotal.WithLabelValues("rejected").Inc()

	problems := 0
	var ge *models.GraphError
	if errors.As(err, &ge) {
		problems = len(ge.Problems)
	}

	s.log.WithFields(logrus.Fields{
		"org_id":   orgID,
		"problems": problems,
	}).WithError(err).Warn("snapshot.rejected")

	detail := map[string]any{"problems": problems}
	auditAsync(s.auditWorker, orgID, models.AuditActionSyncRejected, "", detail)
	s.publish(orgID, EventSyncRejected, detail)
}

func (s *SnapshotService) archiveSnapshot(ctx context.Context, snap *Snapshot, req models.SyncRequest) {
	if s.archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	stats := snap.Graph.Stats()
	err := s.archive.SaveSnapshot(ctx, models.ArchivedSnapshot{
		OrgID:     snap.OrgID,
		Version:   snap.Version,
		Digest:    snap.Digest,
		Payload:   req,
		NodeCount: stats.NodeCount,
		EdgeCount: stats.EdgeCount,
		CreatedAt: snap.BuiltAt,
	})
	if err != nil {
		s.log.WithError(err).WithField("org_id", snap.OrgID).Warn("snapshot archive failed")
	}
}

func (s *SnapshotService) publish(orgID, eventType string, data any) {
	if s.events == nil {
		return
	}

	s.events.Publish(orgID, eventType, data)
}

// Restore rebuilds the latest archived payload of every org and installs it.
// Payloads that no longer build are logged and skipped.
func (s *SnapshotService) Restore(ctx context.Context) (int, error) {
	if s.archive == nil {
		return 0, nil
	}

	archived, err := s.archive.LatestSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading archived snapshots: %w", err)
	}

	restored := 0

	for i := range archived {
		if s.installArchived(&archived[i]) != nil {
			restored++
		}
	}

	s.log.WithField("orgs", restored).Info("snapshot.restore")

	return restored, nil
}

// Reload installs version of orgID from the archive when it is newer than
// the serving snapshot. It is driven by archive notifications from peer
// replicas and reports whether a swap happened.
func (s *SnapshotService) Reload(ctx context.Context, orgID string, version uint64) (bool, error) {
	if s.archive == nil {
		return false, nil
	}

	if cur, err := s.registry.Load(orgID); err == nil && cur.Version >= version {
		return false, nil
	}

	a, err := s.archive.GetSnapshot(ctx, orgID, version)
	if err != nil {
		return false, fmt.Errorf("loading archived snapshot %s@%d: %w", orgID, version, err)
	}

	snap := s.installArchived(a)
	if snap == nil {
		return false, nil
	}

	s.log.WithFields(logrus.Fields{"org_id": orgID, "version": version}).Info("snapshot.reloaded")
	s.publish(orgID, EventSnapshotSwapped, snap.Summary())

	return true, nil
}

// installArchived rebuilds a and installs it unless a newer snapshot serves.
// It returns nil when nothing was installed.
func (s *SnapshotService) installArchived(a *models.ArchivedSnapshot) *Snapshot {
	g, err := graph.Build(a.OrgID, a.Payload.Nodes, a.Payload.Edges)
	if err != nil {
		s.log.WithError(err).WithField("org_id", a.OrgID).Warn("snapshot.restore_skipped")
		return nil
	}

	snap := &Snapshot{OrgID: a.OrgID, Version: a.Version, Digest: a.Digest, BuiltAt: a.CreatedAt, Graph: g}
	if !s.registry.Install(snap) {
		return nil
	}

	stats := g.Stats()
	metrics.SnapshotNodes.WithLabelValues(a.OrgID).Set(float64(stats.NodeCount))
	metrics.SnapshotEdges.WithLabelValues(a.OrgID).Set(float64(stats.EdgeCount))

	return snap
}

// ListOrgs returns a summary of every org with a serving snapshot.
func (s *SnapshotService) ListOrgs(_ context.Context) ([]models.SnapshotSummary, error) {
	snaps := s.registry.List()

	out := make([]models.SnapshotSummary, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snap.Summary())
	}

	return out, nil
}

// GetOrg returns the summary of orgID's serving snapshot.
func (s *SnapshotService) GetOrg(_ context.Context, orgID string) (*models.SnapshotSummary, error) {
	snap, err := s.registry.Load(orgID)
	if err != nil {
		return nil, err
	}

	sum := snap.Summary()

	return &sum, nil
}
