package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/models"
)

// maxSearchTermLen caps the length of search terms.
const maxSearchTermLen = 500

// ImpactHandler serves analysis, search and sync endpoints.
type ImpactHandler struct {
	impact    ImpactService
	snapshots SnapshotService
	log       *logrus.Logger
}

// NewImpactHandler creates an ImpactHandler.
func NewImpactHandler(impact ImpactService, snapshots SnapshotService, log *logrus.Logger) *ImpactHandler {
	return &ImpactHandler{impact: impact, snapshots: snapshots, log: log}
}

// Analyze handles POST /api/v1/analyze.
func (h *ImpactHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	rep, err := h.impact.Analyze(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, "analyzing impact", err)

		return
	}

	c.JSON(http.StatusOK, rep)
}

// Search handles GET /api/v1/search.
func (h *ImpactHandler) Search(c *gin.Context) {
	orgID := c.Query("orgId")
	if err := validatePathID(orgID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "orgId: "+err.Error())

		return
	}

	term := c.Query("term")
	if term == "" {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "query parameter term is required")

		return
	}

	if len(term) > maxSearchTermLen {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "query parameter term exceeds maximum length")

		return
	}

	// An omitted or non-positive limit returns every match.
	limit := parseInt(c.Query("limit"), 0)

	nodes, err := h.impact.Search(c.Request.Context(), orgID, term, limit)
	if err != nil {
		respondServiceError(c, h.log, "searching nodes", err)

		return
	}

	h.log.WithFields(logrus.Fields{"org_id": orgID, "results": len(nodes)}).Debug("impact.search")

	c.JSON(http.StatusOK, gin.H{"nodes": nodes})
}

// Sync handles POST /api/v1/sync.
func (h *ImpactHandler) Sync(c *gin.Context) {
	var req models.SyncRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.snapshots.Sync(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, "syncing snapshot", err)

		return
	}

	c.JSON(http.StatusAccepted, res)
}

// bindJSON decodes the request body into dst, writing a 400 or 413 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, ErrCodeInvalidRequest, "request body exceeds size limit")

			return false
		}

		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return false
	}

	return true
}
