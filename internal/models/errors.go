package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is the parent of every lookup failure.
var ErrNotFound = errors.New("not found")

// Sentinel errors for lookups. Both match errors.Is(err, ErrNotFound).
var (
	ErrOrgNotFound  = fmt.Errorf("org %w", ErrNotFound)
	ErrNodeNotFound = fmt.Errorf("node %w", ErrNotFound)
)

// ErrTimeout indicates an analysis exceeded the caller's time budget.
var ErrTimeout = errors.New("analysis timed out")

// ErrInvalidRequest indicates malformed query input (maps to HTTP 400).
var ErrInvalidRequest = errors.New("invalid request")

// ProblemKind classifies one build-time violation.
type ProblemKind string

// Build-time violation kinds.
const (
	ProblemUnknownNode   ProblemKind = "unknown_node"
	ProblemAmbiguousEdge ProblemKind = "ambiguous_edge"
	ProblemInvalidEdge   ProblemKind = "invalid_edge"
	ProblemInvalidNode   ProblemKind = "invalid_node"
	ProblemDuplicateNode ProblemKind = "duplicate_node"
)

// Problem is one referential or ambiguity violation found while building a graph.
type Problem struct {
	Kind    ProblemKind     `json:"kind"`
	Message string          `json:"message"`
	NodeID  string          `json:"nodeId,omitempty"`
	Edge    *DependencyEdge `json:"edge,omitempty"`
}

// GraphError reports every problem that prevented a snapshot from being built.
type GraphError struct {
	OrgID    string
	Problems []Problem
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if len(e.Problems) == 0 {
		return "graph build failed"
	}

	msgs := make([]string, 0, min(len(e.Problems), 3))
	for i, p := range e.Problems {
		if i == 3 {
			break
		}
		msgs = append(msgs, p.Message)
	}

	suffix := ""
	if len(e.Problems) > 3 {
		suffix = fmt.Sprintf(" (and %d more)", len(e.Problems)-3)
	}

	return fmt.Sprintf("graph build for org %q failed with %d problem(s): %s%s",
		e.OrgID, len(e.Problems), strings.Join(msgs, "; "), suffix)
}

// ConfigError reports an invalid scoring policy or analysis setting.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%w: %s exceeds maximum length of %d", ErrInvalidRequest, field, maxLen)
}

// Validation errors for request envelopes. All wrap ErrInvalidRequest.
var (
	ErrMissingOrgID  = fmt.Errorf("%w: orgId is required", ErrInvalidRequest)
	ErrMissingNodeID = fmt.Errorf("%w: nodeId is required", ErrInvalidRequest)
)

// ErrTooMany returns an error indicating a collection exceeds its size limit.
func ErrTooMany(field string, limit int) error {
	return fmt.Errorf("%w: %s exceeds limit of %d", ErrInvalidRequest, field, limit)
}
