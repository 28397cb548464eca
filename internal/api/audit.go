package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/models"
)

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	repo AuditRepository
	log  *logrus.Logger
}

// NewAuditHandler creates an AuditHandler. repo may be nil when no
// database is configured.
func NewAuditHandler(repo AuditRepository, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: log}
}

// Query handles GET /api/v1/audit.
func (h *AuditHandler) Query(c *gin.Context) {
	if h.repo == nil {
		respondError(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit log requires a database")
		return
	}

	opts := models.AuditQueryOpts{
		OrgID:    c.Query("orgId"),
		Action:   c.Query("action"),
		EntityID: c.Query("entityId"),
		Limit:    parseInt(c.Query("limit"), 50),
		Offset:   parseOffset(c.Query("offset")),
	}

	var ok bool
	if opts.Since, ok = queryTime(c, "since"); !ok {
		return
	}
	if opts.Until, ok = queryTime(c, "until"); !ok {
		return
	}
	if opts.Since != nil && opts.Until != nil && !opts.Until.After(*opts.Since) {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "until must be after since")
		return
	}

	entries, hasMore, err := h.repo.QueryAudit(c.Request.Context(), opts)
	if err != nil {
		h.log.WithError(err).Error("failed to query audit log")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to query audit log")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     entries,
		"has_more": hasMore,
	})
}

// queryTime parses an optional RFC3339 query parameter. It responds 400 and
// returns false when the value is malformed.
func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid "+name+" format, use RFC3339")
		return nil, false
	}

	return &t, true
}
