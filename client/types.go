package client

import "time"

// MetadataNode is one metadata element of an org snapshot.
type MetadataNode struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	Type             string `json:"type" yaml:"type"`
	OrgID            string `json:"orgId,omitempty" yaml:"orgId,omitempty"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	EstimatedRecords *int64 `json:"estimatedRecords,omitempty" yaml:"estimatedRecords,omitempty"`
}

// DependencyEdge states that From depends on To.
type DependencyEdge struct {
	From           string `json:"from" yaml:"from"`
	To             string `json:"to" yaml:"to"`
	DeclaredImpact string `json:"declaredImpact" yaml:"declaredImpact"`
}

// SyncRequest is a complete org snapshot submitted for replacement.
type SyncRequest struct {
	OrgID string           `json:"orgId" yaml:"orgId"`
	Nodes []MetadataNode   `json:"nodes" yaml:"nodes"`
	Edges []DependencyEdge `json:"edges" yaml:"edges"`
}

// SyncResult acknowledges an accepted snapshot.
type SyncResult struct {
	Accepted  bool   `json:"accepted"`
	OrgID     string `json:"orgId"`
	Version   uint64 `json:"version"`
	NodeCount int    `json:"nodeCount"`
	EdgeCount int    `json:"edgeCount"`
	Coalesced bool   `json:"coalesced,omitempty"`
}

// AnalyzeOptions tunes a single analysis.
type AnalyzeOptions struct {
	MaxDepth  *int
	TimeoutMs int
}

// analyzeRequest is the wire payload for POST /analyze.
type analyzeRequest struct {
	OrgID     string `json:"orgId"`
	NodeID    string `json:"nodeId"`
	MaxDepth  *int   `json:"maxDepth,omitempty"`
	Direction string `json:"direction,omitempty"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

// DependencyResult is one node reached by an analysis.
type DependencyResult struct {
	Node             MetadataNode     `json:"node"`
	Distance         int              `json:"distance"`
	Direct           bool             `json:"direct"`
	DeclaredImpact   string           `json:"declaredImpact"`
	RiskScore        float64          `json:"riskScore"`
	RiskLevel        string           `json:"riskLevel"`
	EstimatedRecords *int64           `json:"estimatedRecords,omitempty"`
	Path             []DependencyEdge `json:"path"`
}

// ImpactSummary aggregates an analysis.
type ImpactSummary struct {
	DirectCount      int            `json:"directCount"`
	IndirectCount    int            `json:"indirectCount"`
	TotalCount       int            `json:"totalCount"`
	EstimatedRecords *int64         `json:"estimatedRecords,omitempty"`
	OverallRisk      string         `json:"overallRisk"`
	MaxRiskScore     float64        `json:"maxRiskScore"`
	ByRiskLevel      map[string]int `json:"byRiskLevel"`
	ByType           map[string]int `json:"byType"`
	DepthLimited     bool           `json:"depthLimited"`
}

// Recommendation is a change-management suggestion derived from a report.
type Recommendation struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
}

// ImpactReport is the result of an analysis.
type ImpactReport struct {
	OrgID           string             `json:"orgId"`
	NodeID          string             `json:"nodeId"`
	Node            MetadataNode       `json:"node"`
	Direction       string             `json:"direction"`
	MaxDepth        int                `json:"maxDepth"`
	SnapshotVersion uint64             `json:"snapshotVersion"`
	Summary         ImpactSummary      `json:"summary"`
	Dependencies    []DependencyResult `json:"dependencies"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// SnapshotSummary describes an org's serving snapshot.
type SnapshotSummary struct {
	OrgID       string         `json:"orgId"`
	Version     uint64         `json:"version"`
	Digest      string         `json:"digest"`
	BuiltAt     time.Time      `json:"builtAt"`
	NodeCount   int            `json:"nodeCount"`
	EdgeCount   int            `json:"edgeCount"`
	NodesByType map[string]int `json:"nodesByType"`
}

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID        int64          `json:"id"`
	OrgID     string         `json:"org_id"`
	Action    string         `json:"action"`
	EntityID  string         `json:"entity_id"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditQueryOptions filters audit queries. An Action ending in "*" matches
// by prefix.
type AuditQueryOptions struct {
	OrgID    string
	Action   string
	EntityID string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is the readiness check payload.
type ReadyResponse struct {
	Status string            `json:"status"`
	Orgs   int               `json:"orgs"`
	Checks map[string]string `json:"checks"`
}
