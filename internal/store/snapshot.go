package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/domain"
	"github.com/nexalabs/impactgraph/internal/models"
)

// Compile-time check: *SnapshotStore must satisfy domain.SnapshotArchive.
var _ domain.SnapshotArchive = (*SnapshotStore)(nil)

// SnapshotStore provides data access for the impact_snapshots table.
type SnapshotStore struct {
	Base
}

// NewSnapshotStore creates a SnapshotStore.
func NewSnapshotStore(base Base) *SnapshotStore {
	return &SnapshotStore{Base: base}
}

// SaveSnapshot archives an accepted payload. A version already archived for
// the org is left untouched.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap models.ArchivedSnapshot) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("marshaling snapshot payload: %w", err)
	}

	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO impact_snapshots (org_id, version, digest, payload, node_count, edge_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (org_id, version) DO NOTHING`,
		snap.OrgID, int64(snap.Version), snap.Digest, payload, snap.NodeCount, snap.EdgeCount, snap.CreatedAt, //nolint:gosec // versions never exceed int64.
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"org_id":   snap.OrgID,
		"version":  snap.Version,
		"inserted": tag.RowsAffected() == 1,
	}).Debug("snapshot.archived")

	return nil
}

// LatestSnapshots returns the highest archived version of every org.
func (s *SnapshotStore) LatestSnapshots(ctx context.Context) ([]models.ArchivedSnapshot, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on read-only tx.

	rows, err := tx.Query(ctx, `
		SELECT DISTINCT ON (org_id) org_id, version, digest, payload, node_count, edge_count, created_at
		FROM impact_snapshots
		ORDER BY org_id, version DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.ArchivedSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}

	return out, nil
}

// GetSnapshot returns one archived version of orgID.
func (s *SnapshotStore) GetSnapshot(ctx context.Context, orgID string, version uint64) (*models.ArchivedSnapshot, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `
		SELECT org_id, version, digest, payload, node_count, edge_count, created_at
		FROM impact_snapshots
		WHERE org_id = $1 AND version = $2`,
		orgID, int64(version), //nolint:gosec // versions never exceed int64.
	)

	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}

	return snap, err
}

func scanSnapshot(row pgx.Row) (*models.ArchivedSnapshot, error) {
	var (
		snap    models.ArchivedSnapshot
		version int64
		payload []byte
	)

	if err := row.Scan(&snap.OrgID, &version, &snap.Digest, &payload, &snap.NodeCount, &snap.EdgeCount, &snap.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	snap.Version = uint64(version) //nolint:gosec // stored versions are positive.

	if err := json.Unmarshal(payload, &snap.Payload); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot payload: %w", err)
	}

	return &snap, nil
}
