// Package models defines data types for the metadata dependency graph.
package models

import (
	"fmt"
	"strings"
)

// NodeType is the kind of a metadata element. The set is closed: every
// consumer that switches on it (the scoring policy in particular) must
// handle all of AllNodeTypes.
type NodeType string

// Metadata element kinds.
const (
	NodeTypeObject     NodeType = "object"
	NodeTypeField      NodeType = "field"
	NodeTypeFlow       NodeType = "flow"
	NodeTypeTrigger    NodeType = "trigger"
	NodeTypeReport     NodeType = "report"
	NodeTypeValidation NodeType = "validation"
)

// AllNodeTypes lists every NodeType in declaration order.
var AllNodeTypes = []NodeType{
	NodeTypeObject,
	NodeTypeField,
	NodeTypeFlow,
	NodeTypeTrigger,
	NodeTypeReport,
	NodeTypeValidation,
}

// Valid reports whether t is one of AllNodeTypes.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeObject, NodeTypeField, NodeTypeFlow, NodeTypeTrigger, NodeTypeReport, NodeTypeValidation:
		return true
	default:
		return false
	}
}

// ControlsProcess reports whether elements of this type execute logic
// when records change (flows, triggers, validation rules).
func (t NodeType) ControlsProcess() bool {
	switch t {
	case NodeTypeFlow, NodeTypeTrigger, NodeTypeValidation:
		return true
	default:
		return false
	}
}

// ParseNodeType converts s (case-insensitive) to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}

	return t, nil
}

// MetadataNode is one metadata element of an org snapshot.
type MetadataNode struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Type             NodeType `json:"type" yaml:"type"`
	OrgID            string   `json:"orgId" yaml:"orgId"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
	EstimatedRecords *int64   `json:"estimatedRecords,omitempty" yaml:"estimatedRecords,omitempty"`
}

// Equal reports whether two node records carry identical content.
func (n MetadataNode) Equal(o MetadataNode) bool {
	if n.ID != o.ID || n.Name != o.Name || n.Type != o.Type || n.OrgID != o.OrgID || n.Description != o.Description {
		return false
	}

	switch {
	case n.EstimatedRecords == nil && o.EstimatedRecords == nil:
		return true
	case n.EstimatedRecords == nil || o.EstimatedRecords == nil:
		return false
	default:
		return *n.EstimatedRecords == *o.EstimatedRecords
	}
}
