package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OrgHandler serves snapshot summaries and node lookups.
type OrgHandler struct {
	impact    ImpactService
	snapshots SnapshotService
	log       *logrus.Logger
}

// NewOrgHandler creates an OrgHandler.
func NewOrgHandler(impact ImpactService, snapshots SnapshotService, log *logrus.Logger) *OrgHandler {
	return &OrgHandler{impact: impact, snapshots: snapshots, log: log}
}

// List handles GET /api/v1/orgs.
func (h *OrgHandler) List(c *gin.Context) {
	orgs, err := h.snapshots.ListOrgs(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, "listing orgs", err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"orgs": orgs})
}

// Get handles GET /api/v1/orgs/:orgId.
func (h *OrgHandler) Get(c *gin.Context) {
	orgID := c.Param("orgId")
	if err := validatePathID(orgID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	sum, err := h.snapshots.GetOrg(c.Request.Context(), orgID)
	if err != nil {
		respondServiceError(c, h.log, "getting org", err)

		return
	}

	c.JSON(http.StatusOK, sum)
}

// Node handles GET /api/v1/orgs/:orgId/nodes/:nodeId.
func (h *OrgHandler) Node(c *gin.Context) {
	orgID, nodeID := c.Param("orgId"), c.Param("nodeId")
	for _, id := range []string{orgID, nodeID} {
		if err := validatePathID(id); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}
	}

	node, err := h.impact.GetNode(c.Request.Context(), orgID, nodeID)
	if err != nil {
		respondServiceError(c, h.log, "getting node", err)

		return
	}

	c.JSON(http.StatusOK, node)
}
