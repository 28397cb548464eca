// Package metrics defines Prometheus metrics for the impact service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "impact_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impact_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impact_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impact_analyses_total",
			Help: "Impact analyses by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "impact_analysis_duration_seconds",
			Help:    "Time spent traversing, scoring and assembling one report",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"direction"},
	)

	RiskScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "impact_risk_score",
			Help:    "Distribution of per-dependency risk scores",
			Buckets: []float64{0.25, 0.5, 1, 1.5, 2, 2.4, 3, 4},
		},
	)

	ActiveAnalyses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "impact_active_analyses",
			Help: "Analyses currently holding a worker slot",
		},
	)

	SyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impact_syncs_total",
			Help: "Snapshot syncs by outcome",
		},
		[]string{"outcome"},
	)

	BuildsCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "impact_builds_coalesced_total",
			Help: "Sync requests that joined an identical in-flight build",
		},
	)

	SnapshotNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "impact_snapshot_nodes",
			Help: "Nodes in the serving snapshot",
		},
		[]string{"org_id"},
	)

	SnapshotEdges = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "impact_snapshot_edges",
			Help: "Edges in the serving snapshot",
		},
		[]string{"org_id"},
	)

	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "impact_audit_queue_depth",
			Help: "Current audit queue depth",
		},
	)

	AuditDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impact_audit_dropped_total",
			Help: "Audit entries lost, by reason",
		},
		[]string{"reason"},
	)

	RequestBodyBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "impact_http_request_body_bytes",
			Help:    "Declared request body size of write requests",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 9),
		},
		[]string{"path"},
	)

	PeerReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impact_peer_reloads_total",
			Help: "Archive notifications from peer replicas by outcome",
		},
		[]string{"result"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "impact_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		AnalysesTotal, AnalysisDuration, RiskScores, ActiveAnalyses,
		SyncsTotal, BuildsCoalesced, SnapshotNodes, SnapshotEdges,
		AuditQueueDepth, AuditDropped, WSConnections, RequestBodyBytes, PeerReloads,
	)
}

// PoolStats is the archive connection pool usage reported by RegisterPoolStats.
type PoolStats struct {
	Acquired, Idle, Total, Max int32
}

// RegisterPoolStats exposes archive pool usage as gauges read from stats at
// scrape time. It must be called at most once.
func RegisterPoolStats(stats func() PoolStats) {
	gauge := func(name, help string, pick func(PoolStats) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help},
			func() float64 { return float64(pick(stats())) },
		)
	}

	prometheus.MustRegister(
		gauge("impact_archive_conns_acquired", "Archive connections in use", func(s PoolStats) int32 { return s.Acquired }),
		gauge("impact_archive_conns_idle", "Idle archive connections", func(s PoolStats) int32 { return s.Idle }),
		gauge("impact_archive_conns_total", "Open archive connections", func(s PoolStats) int32 { return s.Total }),
		gauge("impact_archive_conns_max", "Archive connection limit", func(s PoolStats) int32 { return s.Max }),
	)
}
