// Package service provides business logic between API handlers and the
// in-memory snapshot registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/nexalabs/impactgraph/internal/domain"
	"github.com/nexalabs/impactgraph/internal/metrics"
	"github.com/nexalabs/impactgraph/internal/models"
	"github.com/nexalabs/impactgraph/internal/report"
	"github.com/nexalabs/impactgraph/internal/scoring"
)

// Compile-time check: *ImpactService must satisfy domain.ImpactService.
var _ domain.ImpactService = (*ImpactService)(nil)

// ImpactOptions tunes the analysis worker pool.
type ImpactOptions struct {
	// Workers bounds concurrent analyses. <= 0 means GOMAXPROCS.
	Workers int
	// Timeout is the default and maximum time budget of one analysis.
	Timeout time.Duration
	// DefaultMaxDepth applies when a request omits maxDepth. 0 is unbounded.
	DefaultMaxDepth int
}

// ImpactService runs analyses against the serving snapshot of each org.
type ImpactService struct {
	registry    *SnapshotRegistry
	scorer      *scoring.Scorer
	pool        *semaphore.Weighted
	opts        ImpactOptions
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewImpactService creates an ImpactService.
func NewImpactService(
	registry *SnapshotRegistry,
	scorer *scoring.Scorer,
	opts ImpactOptions,
	auditWorker AuditEnqueuer,
	log *logrus.Logger,
) *ImpactService {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	return &ImpactService{
		registry:    registry,
		scorer:      scorer,
		pool:        semaphore.NewWeighted(int64(opts.Workers)),
		opts:        opts,
		auditWorker: auditWorker,
		log:         log,
	}
}

// analysisBudget returns the caller's timeoutMs when it is positive and
// below limit, and limit otherwise. The comparison happens in milliseconds
// so huge requests cannot overflow a Duration.
func analysisBudget(limit time.Duration, timeoutMs int) time.Duration {
	if timeoutMs <= 0 || int64(timeoutMs) >= limit.Milliseconds() {
		return limit
	}
	return time.Duration(timeoutMs) * time.Millisecond
}

// Analyze computes a fresh ImpactReport for req.NodeID.
func (s *ImpactService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.ImpactReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dir, _ := models.ParseDirection(req.Direction)

	depth := s.opts.DefaultMaxDepth
	if req.MaxDepth != nil {
		depth = *req.MaxDepth
	}

	ctx, cancel := context.WithTimeout(ctx, analysisBudget(s.opts.Timeout, req.TimeoutMs))
	defer cancel()

	snap, err := s.registry.Load(req.OrgID)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(dir), "not_found").Inc()
		return nil, err
	}

	if err := s.pool.Acquire(ctx, 1); err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(dir), "timeout").Inc()
		return nil, fmt.Errorf("%w: waiting for a worker: %w", models.ErrTimeout, err)
	}
	defer s.pool.Release(1)

	metrics.ActiveAnalyses.Inc()
	defer metrics.ActiveAnalyses.Dec()

	start := time.Now()

	tr, err := snap.Graph.Traverse(ctx, req.NodeID, depth, dir)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(dir), outcome(err)).Inc()
		return nil, err
	}

	rep := report.Assemble(report.Input{
		OrgID:           snap.OrgID,
		SnapshotVersion: snap.Version,
		Traversal:       tr,
		Scorer:          s.scorer,
	})

	elapsed := time.Since(start)
	metrics.AnalysisDuration.WithLabelValues(string(dir)).Observe(elapsed.Seconds())
	metrics.AnalysesTotal.WithLabelValues(string(dir), "ok").Inc()

	for i := range rep.Dependencies {
		metrics.RiskScores.Observe(rep.Dependencies[i].RiskScore)
	}

	s.log.WithFields(logrus.Fields{
		"org_id":       rep.OrgID,
		"node_id":      rep.NodeID,
		"direction":    dir,
		"max_depth":    depth,
		"dependencies": rep.Summary.TotalCount,
		"overall_risk": rep.Summary.OverallRisk,
		"duration_ms":  elapsed.Milliseconds(),
	}).Debug("impact.analyze")

	auditAsync(s.auditWorker, rep.OrgID, models.AuditActionAnalyze, rep.NodeID, map[string]any{
		"direction":         dir,
		"max_depth":         depth,
		"version":           rep.SnapshotVersion,
		"total_count":       rep.Summary.TotalCount,
		"overall_risk":      rep.Summary.OverallRisk,
		"max_risk_score":    rep.Summary.MaxRiskScore,
		"depth_limited":     rep.Summary.DepthLimited,
		"estimated_records": rep.Summary.EstimatedRecords,
	})

	return &rep, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, models.ErrTimeout):
		return "timeout"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Search returns nodes of orgID whose name contains term.
func (s *ImpactService) Search(_ context.Context, orgID, term string, limit int) ([]models.MetadataNode, error) {
	snap, err := s.registry.Load(orgID)
	if err != nil {
		return nil, err
	}

	return snap.Graph.Search(term, limit), nil
}

// GetNode returns one node of orgID's serving snapshot.
func (s *ImpactService) GetNode(_ context.Context, orgID, nodeID string) (*models.MetadataNode, error) {
	snap, err := s.registry.Load(orgID)
	if err != nil {
		return nil, err
	}

	n, err := snap.Graph.Get(nodeID)
	if err != nil {
		return nil, err
	}

	return &n, nil
}
