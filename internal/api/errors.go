package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/httputil"
	"github.com/nexalabs/impactgraph/internal/metrics"
	"github.com/nexalabs/impactgraph/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeInternalError  = "internal_error"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeTimeout        = "timeout"
	ErrCodeGraphError     = "graph_error"
	ErrCodeUnavailable    = "unavailable"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps a service-layer error onto its HTTP status.
// Unrecognised errors are logged with op and reported as 500.
func respondServiceError(c *gin.Context, log *logrus.Logger, op string, err error) {
	var ge *models.GraphError

	switch {
	case errors.As(err, &ge):
		metrics.ErrorsTotal.WithLabelValues(ErrCodeGraphError).Inc()
		httputil.RespondErrorDetails(c, http.StatusUnprocessableEntity, ErrCodeGraphError, ge.Error(), ge.Problems)
	case errors.Is(err, models.ErrOrgNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "org not found")
	case errors.Is(err, models.ErrNodeNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "node not found")
	case errors.Is(err, models.ErrTimeout):
		respondError(c, http.StatusGatewayTimeout, ErrCodeTimeout, "analysis exceeded its time budget")
	case errors.Is(err, models.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		log.WithError(err).Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
