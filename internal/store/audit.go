package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/domain"
	"github.com/nexalabs/impactgraph/internal/models"
)

// Compile-time check: *AuditStore must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditStore)(nil)

// AuditStore provides data access for the impact_audit_log table.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// RecordAudit inserts an audit log entry.
func (s *AuditStore) RecordAudit(
	ctx context.Context,
	orgID, action, entityID string,
	detail map[string]any,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		detailJSON []byte
		err        error
	)
	if detail != nil {
		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
	}

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO impact_audit_log (org_id, action, entity_id, detail)
		VALUES ($1, $2, $3, $4)`,
		orgID, action, entityID, detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// auditFilter accumulates WHERE conditions with numbered placeholders.
type auditFilter struct {
	conds []string
	args  []any
}

func (f *auditFilter) add(expr string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, expr+" $"+strconv.Itoa(len(f.args)))
}

// next returns the placeholder index for the next argument.
func (f *auditFilter) next() int {
	return len(f.args) + 1
}

func (f *auditFilter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildAuditFilter translates query options into a filter.
func buildAuditFilter(opts models.AuditQueryOpts) *auditFilter {
	f := &auditFilter{}

	if opts.OrgID != "" {
		f.add("org_id =", opts.OrgID)
	}
	if prefix, ok := strings.CutSuffix(opts.Action, "*"); ok {
		if prefix != "" {
			f.add("action LIKE", likeEscaper.Replace(prefix)+"%")
		}
	} else if opts.Action != "" {
		f.add("action =", opts.Action)
	}
	if opts.EntityID != "" {
		f.add("entity_id =", opts.EntityID)
	}
	if opts.Since != nil {
		f.add("created_at >=", *opts.Since)
	}
	if opts.Until != nil {
		f.add("created_at <", *opts.Until)
	}

	return f
}

// QueryAudit returns audit entries matching the given filters.
// Returns entries, hasMore flag, and any error.
func (s *AuditStore) QueryAudit(
	ctx context.Context, opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	filter := buildAuditFilter(opts)
	argIdx := filter.next()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(
		"SELECT id, org_id, action, entity_id, detail, created_at FROM impact_audit_log %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		filter.where(), argIdx, argIdx+1,
	)
	args := append(filter.args, limit+1, opts.Offset)

	entries, err := scanAuditRows(ctx, tx, query, args, s.Log)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// scanAuditRows executes a query and scans audit entries from the result.
func scanAuditRows(ctx context.Context, tx pgx.Tx, query string, args []any, log *logrus.Logger) ([]models.AuditEntry, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var detailJSON []byte

		if err := rows.Scan(&e.ID, &e.OrgID, &e.Action, &e.EntityID, &detailJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				log.WithError(err).Warn("failed to unmarshal audit detail")
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit log: %w", err)
	}

	return entries, nil
}

// purgeBatchSize limits the number of rows deleted per transaction to avoid
// holding long locks on impact_audit_log.
const purgeBatchSize = 5000

// PurgeOldEntries deletes audit entries older than retentionDays in batches.
// Returns the number of deleted entries.
func (s *AuditStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeOldEntriesBatch(batchCtx, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

// purgeOldEntriesBatch deletes a single batch of expired audit entries.
func (s *AuditStore) purgeOldEntriesBatch(ctx context.Context, retentionDays int) (int, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	tag, err := tx.Exec(ctx,
		`DELETE FROM impact_audit_log WHERE id IN (
			SELECT id FROM impact_audit_log
			WHERE created_at < NOW() - make_interval(days => $1)
			LIMIT $2
		)`,
		retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging audit entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
