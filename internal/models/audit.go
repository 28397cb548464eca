package models

import "time"

// Audit actions recorded by the service.
const (
	AuditActionAnalyze      = "impact.analyze"
	AuditActionSync         = "snapshot.sync"
	AuditActionSyncRejected = "sync.rejected"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID        int64          `json:"id"`
	OrgID     string         `json:"org_id"`
	Action    string         `json:"action"`
	EntityID  string         `json:"entity_id"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditQueryOpts holds filters for querying the audit log. An Action ending
// in "*" matches every action with that prefix.
type AuditQueryOpts struct {
	OrgID    string
	Action   string
	EntityID string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}
