package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/domain"
	"github.com/nexalabs/impactgraph/internal/models"
)

// Auditor is an alias for the canonical domain.Auditor interface.
type Auditor = domain.Auditor

// AuditQueryStore is the data-access interface AuditService depends on.
// It reuses domain.AuditService since the method sets are identical.
type AuditQueryStore = domain.AuditService

// Compile-time check: *AuditService must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditService)(nil)

// AuditService wraps AuditQueryStore with logging.
type AuditService struct {
	store AuditQueryStore
	log   *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditQueryStore, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// RecordAudit inserts an audit log entry (pass-through to store).
func (s *AuditService) RecordAudit(
	ctx context.Context, orgID, action, entityID string, detail map[string]any,
) error {
	return s.store.RecordAudit(ctx, orgID, action, entityID, detail)
}

// QueryAudit returns audit entries matching the given filters.
func (s *AuditService) QueryAudit(
	ctx context.Context, opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	entries, hasMore, err := s.store.QueryAudit(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	s.log.WithFields(logrus.Fields{
		"org_id": opts.OrgID,
		"action": opts.Action,
		"count":  len(entries),
	}).Debug("audit.query")

	return entries, hasMore, nil
}

// AuditPurger deletes audit entries older than a retention window.
type AuditPurger interface {
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// RunAuditRetention purges expired audit entries once at start and then on
// every tick of interval until ctx is cancelled.
func RunAuditRetention(ctx context.Context, purger AuditPurger, retentionDays int, interval time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		purged, err := purger.PurgeOldEntries(ctx, retentionDays)
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("audit retention purge failed")
		} else if purged > 0 {
			log.WithFields(logrus.Fields{
				"purged":         purged,
				"retention_days": retentionDays,
			}).Info("audit.purged")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
