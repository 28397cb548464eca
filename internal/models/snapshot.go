package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Payload limits for a single sync.
const (
	MaxOrgIDLen  = 255
	MaxNodeIDLen = 255
	MaxSyncNodes = 200_000
	MaxSyncEdges = 1_000_000
)

// SyncRequest is the wholesale snapshot payload delivered by the ingestion collaborator.
type SyncRequest struct {
	OrgID string           `json:"orgId" yaml:"orgId"`
	Nodes []MetadataNode   `json:"nodes" yaml:"nodes"`
	Edges []DependencyEdge `json:"edges" yaml:"edges"`
}

// Validate checks envelope-level limits. Referential checks happen in the graph builder.
func (r *SyncRequest) Validate() error {
	if r.OrgID == "" {
		return ErrMissingOrgID
	}

	if len(r.OrgID) > MaxOrgIDLen {
		return ErrFieldTooLong("orgId", MaxOrgIDLen)
	}

	if len(r.Nodes) > MaxSyncNodes {
		return ErrTooMany("nodes", MaxSyncNodes)
	}

	if len(r.Edges) > MaxSyncEdges {
		return ErrTooMany("edges", MaxSyncEdges)
	}

	return nil
}

// Digest returns a stable hex SHA-256 of the payload, used to coalesce
// identical concurrent syncs.
func (r *SyncRequest) Digest() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// SyncResult is returned when a snapshot has been accepted and swapped in.
type SyncResult struct {
	Accepted  bool   `json:"accepted"`
	OrgID     string `json:"orgId"`
	Version   uint64 `json:"version"`
	NodeCount int    `json:"nodeCount"`
	EdgeCount int    `json:"edgeCount"`
	Coalesced bool   `json:"coalesced"`
}

// GraphStats summarises the size of one snapshot.
type GraphStats struct {
	NodeCount   int              `json:"nodeCount"`
	EdgeCount   int              `json:"edgeCount"`
	NodesByType map[NodeType]int `json:"nodesByType"`
}

// SnapshotSummary describes the snapshot currently serving an org.
type SnapshotSummary struct {
	OrgID   string    `json:"orgId"`
	Version uint64    `json:"version"`
	Digest  string    `json:"digest"`
	BuiltAt time.Time `json:"builtAt"`
	GraphStats
}

// ArchivedSnapshot is an accepted sync payload persisted for restart recovery.
type ArchivedSnapshot struct {
	OrgID     string      `json:"orgId"`
	Version   uint64      `json:"version"`
	Digest    string      `json:"digest"`
	Payload   SyncRequest `json:"payload"`
	NodeCount int         `json:"nodeCount"`
	EdgeCount int         `json:"edgeCount"`
	CreatedAt time.Time   `json:"createdAt"`
}
