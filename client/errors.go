package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Problem is one defect reported when a sync payload is rejected.
type Problem struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	NodeID  string          `json:"nodeId,omitempty"`
	Edge    *DependencyEdge `json:"edge,omitempty"`
}

// APIError represents a structured error response from the API.
type APIError struct {
	StatusCode int       `json:"-"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	RequestID  string    `json:"request_id,omitempty"`
	Problems   []Problem `json:"errors,omitempty"`

	// RetryAfter is the server's backoff hint on 429 responses.
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("impactgraph: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("impactgraph: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func hasStatus(err error, status int) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == status
}

// IsNotFound returns true if the error is a 404 not found.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsRejected returns true if a sync payload was rejected as an invalid graph.
func IsRejected(err error) bool { return hasStatus(err, http.StatusUnprocessableEntity) }

// IsTimeout returns true if an analysis exceeded its time budget.
func IsTimeout(err error) bool { return hasStatus(err, http.StatusGatewayTimeout) }

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool { return hasStatus(err, http.StatusTooManyRequests) }

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
