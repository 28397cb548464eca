package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/dbpool"
	"github.com/nexalabs/impactgraph/internal/middleware"
	"github.com/nexalabs/impactgraph/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool // nil when no archive database is configured
	Hub         *ws.Hub
	Impact      ImpactService
	Snapshots   SnapshotService
	Audit       AuditRepository // nil disables GET /audit
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize = 32 << 20 // 32 MB, sync payloads carry whole org graphs
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
	syncCost    = 20       // tokens charged per snapshot sync
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst,
		middleware.WithRouteCost(http.MethodPost, "/api/v1/sync", syncCost),
	).Handler())
	r.Use(middleware.PrometheusMiddleware())
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, deps.Snapshots, log, deps.Version)
	impact := NewImpactHandler(deps.Impact, deps.Snapshots, log)
	orgs := NewOrgHandler(deps.Impact, deps.Snapshots, log)
	audit := NewAuditHandler(deps.Audit, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	api.POST("/analyze", impact.Analyze)
	api.GET("/search", impact.Search)
	api.POST("/sync", impact.Sync)

	api.GET("/orgs", orgs.List)
	api.GET("/orgs/:orgId", orgs.Get)
	api.GET("/orgs/:orgId/nodes/:nodeId", orgs.Node)

	api.GET("/audit", audit.Query)

	if deps.Hub != nil {
		api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
