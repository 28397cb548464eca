package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/nexalabs/impactgraph/internal/api"
	"github.com/nexalabs/impactgraph/internal/models"
	"github.com/nexalabs/impactgraph/internal/scoring"
	"github.com/nexalabs/impactgraph/internal/service"
)

const emailSync = `{
  "orgId": "org-1",
  "nodes": [
    {"id": "email", "name": "Email", "type": "field"},
    {"id": "flow", "name": "Welcome Flow", "type": "flow"},
    {"id": "report", "name": "Contacts Report", "type": "report"},
    {"id": "formula", "name": "Email Domain", "type": "field"}
  ],
  "edges": [
    {"from": "flow", "to": "email", "declaredImpact": "high"},
    {"from": "report", "to": "email", "declaredImpact": "medium"},
    {"from": "formula", "to": "email", "declaredImpact": "low"}
  ]
}`

func newFullRouter(t *testing.T) http.Handler {
	t.Helper()

	log := testLogger()
	reg := service.NewSnapshotRegistry()
	snaps := service.NewSnapshotService(reg, nil, nil, nil, log)
	impact := service.NewImpactService(reg, scoring.New(scoring.DefaultPolicy()), service.ImpactOptions{}, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Impact:      impact,
		Snapshots:   snaps,
		CORSOrigins: []string{"http://localhost:3000"},
		Version:     "test",
	})
}

func TestRouter_SyncThenAnalyze(t *testing.T) {
	t.Parallel()

	r := newFullRouter(t)

	if w := doRequest(r, http.MethodPost, "/api/v1/analyze", `{"orgId":"org-1","nodeId":"email"}`); w.Code != http.StatusNotFound {
		t.Fatalf("analyze before sync: expected 404, got %d", w.Code)
	}

	w := doRequest(r, http.MethodPost, "/api/v1/sync", emailSync)
	if w.Code != http.StatusAccepted {
		t.Fatalf("sync: expected 202, got %d: %s", w.Code, w.Body.String())
	}

	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Error("missing X-Request-ID header")
	}

	first := doRequest(r, http.MethodPost, "/api/v1/analyze", `{"orgId":"org-1","nodeId":"email"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d: %s", first.Code, first.Body.String())
	}

	var rep models.ImpactReport
	if err := json.Unmarshal(first.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}

	want := []struct {
		id    string
		score float64
		level models.RiskLevel
	}{
		{"flow", 3.6, models.ImpactHigh},
		{"report", 1.6, models.ImpactMedium},
		{"formula", 1.0, models.ImpactMedium},
	}
	if len(rep.Dependencies) != len(want) {
		t.Fatalf("dependencies = %+v", rep.Dependencies)
	}
	for i, w := range want {
		d := rep.Dependencies[i]
		if d.Node.ID != w.id || d.RiskScore != w.score || d.RiskLevel != w.level {
			t.Errorf("dependency %d = %s %.4f %s, want %s %.4f %s", i, d.Node.ID, d.RiskScore, d.RiskLevel, w.id, w.score, w.level)
		}
	}

	second := doRequest(r, http.MethodPost, "/api/v1/analyze", `{"orgId":"org-1","nodeId":"email"}`)
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("repeated analysis should produce byte-identical JSON")
	}

	if w := doRequest(r, http.MethodGet, "/api/v1/orgs/org-1/nodes/flow", ""); w.Code != http.StatusOK {
		t.Errorf("node lookup: expected 200, got %d", w.Code)
	}
}

func TestRouter_SyncRejectionKeepsSnapshot(t *testing.T) {
	t.Parallel()

	r := newFullRouter(t)

	if w := doRequest(r, http.MethodPost, "/api/v1/sync", emailSync); w.Code != http.StatusAccepted {
		t.Fatalf("sync: expected 202, got %d", w.Code)
	}

	bad := `{"orgId":"org-1","nodes":[{"id":"a","name":"A","type":"field"}],"edges":[{"from":"a","to":"ghost","declaredImpact":"high"}]}`
	w := doRequest(r, http.MethodPost, "/api/v1/sync", bad)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad sync: expected 422, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/v1/orgs/org-1", "")
	var sum models.SnapshotSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil || sum.Version != 1 || sum.NodeCount != 4 {
		t.Errorf("summary after rejection = %s, %v", w.Body.String(), err)
	}
}

func TestRouter_AuditUnavailableWithoutDatabase(t *testing.T) {
	t.Parallel()

	r := newFullRouter(t)

	if w := doRequest(r, http.MethodGet, "/api/v1/audit", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}

	if w := doRequest(r, http.MethodGet, "/api/v1/health", ""); w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}
}
