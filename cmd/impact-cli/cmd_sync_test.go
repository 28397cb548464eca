package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writePayload(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return p
}

const yamlPayload = `
nodes:
  - id: Contact.Email
    name: Email
    type: field
    estimatedRecords: 5000
  - id: flow1
    name: Welcome Flow
    type: flow
edges:
  - from: flow1
    to: Contact.Email
    declaredImpact: high
`

func TestLoadPayloadYAML(t *testing.T) {
	req, err := loadPayload(writePayload(t, "org.yaml", yamlPayload), "org1")
	if err != nil {
		t.Fatalf("loadPayload: %v", err)
	}
	if req.OrgID != "org1" {
		t.Errorf("orgId: got %q, want org1", req.OrgID)
	}
	if len(req.Nodes) != 2 || len(req.Edges) != 1 {
		t.Fatalf("got %d nodes, %d edges", len(req.Nodes), len(req.Edges))
	}
	if req.Nodes[0].EstimatedRecords == nil || *req.Nodes[0].EstimatedRecords != 5000 {
		t.Errorf("estimatedRecords not parsed: %+v", req.Nodes[0])
	}
	if req.Edges[0].DeclaredImpact != "high" {
		t.Errorf("declaredImpact: got %q", req.Edges[0].DeclaredImpact)
	}
}

func TestLoadPayloadJSON(t *testing.T) {
	p := writePayload(t, "org.json", `{"orgId":"org1","nodes":[{"id":"a","name":"A","type":"field"}],"edges":[]}`)
	req, err := loadPayload(p, "org1")
	if err != nil {
		t.Fatalf("loadPayload: %v", err)
	}
	if len(req.Nodes) != 1 || req.Nodes[0].ID != "a" {
		t.Errorf("got %+v", req.Nodes)
	}
}

func TestLoadPayloadErrors(t *testing.T) {
	tests := []struct {
		name, file, content, want string
	}{
		{"org mismatch", "org.json", `{"orgId":"other"}`, "does not match"},
		{"bad extension", "org.txt", `{}`, "unsupported payload extension"},
		{"malformed json", "org.json", `{"nodes":`, "parsing"},
		{"malformed yaml", "org.yml", "nodes: [unclosed", "parsing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadPayload(writePayload(t, tc.file, tc.content), "org1")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error containing %q", err, tc.want)
			}
		})
	}

	if _, err := loadPayload(filepath.Join(t.TempDir(), "missing.json"), "org1"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseTimeFlag(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := parseTimeFlag("since", "2026-02-01T00:00:00Z", now)
	if err != nil || !got.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("RFC3339: got %v, %v", got, err)
	}

	got, err = parseTimeFlag("since", "24h", now)
	if err != nil || !got.Equal(now.Add(-24*time.Hour)) {
		t.Errorf("duration: got %v, %v", got, err)
	}

	_, err = parseTimeFlag("until", "yesterday", now)
	if err == nil || !strings.Contains(err.Error(), "--until") {
		t.Errorf("expected --until error, got %v", err)
	}
}
