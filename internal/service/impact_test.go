package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nexalabs/impactgraph/internal/models"
	"github.com/nexalabs/impactgraph/internal/scoring"
)

func ptr[T any](v T) *T { return &v }

func newTestImpactService(t *testing.T, opts ImpactOptions) (*ImpactService, *mockEnqueuer) {
	t.Helper()

	reg := NewSnapshotRegistry()
	snaps := NewSnapshotService(reg, nil, nil, nil, testLogger())
	if _, err := snaps.Sync(context.Background(), emailPayload("org-1")); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	q := &mockEnqueuer{}

	return NewImpactService(reg, scoring.New(scoring.DefaultPolicy()), opts, q, testLogger()), q
}

func TestImpactService_Analyze(t *testing.T) {
	svc, q := newTestImpactService(t, ImpactOptions{})

	rep, err := svc.Analyze(context.Background(), models.AnalyzeRequest{OrgID: "org-1", NodeID: "email"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if rep.SnapshotVersion != 1 || rep.Summary.TotalCount != 3 {
		t.Errorf("report = %+v", rep.Summary)
	}

	wantOrder := []string{"flow", "report", "formula"}
	for i, id := range wantOrder {
		if rep.Dependencies[i].Node.ID != id {
			t.Errorf("dependency %d = %s, want %s", i, rep.Dependencies[i].Node.ID, id)
		}
	}

	if got := q.actions(); len(got) != 1 || got[0] != models.AuditActionAnalyze {
		t.Errorf("audit = %v", got)
	}
}

func TestImpactService_AnalyzeDependencies(t *testing.T) {
	svc, _ := newTestImpactService(t, ImpactOptions{})

	rep, err := svc.Analyze(context.Background(), models.AnalyzeRequest{OrgID: "org-1", NodeID: "flow", Direction: "dependencies"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if rep.Direction != models.DirectionDependencies || len(rep.Dependencies) != 1 || rep.Dependencies[0].Node.ID != "email" {
		t.Errorf("report = %+v", rep)
	}
}

func TestImpactService_DefaultMaxDepth(t *testing.T) {
	svc, _ := newTestImpactService(t, ImpactOptions{DefaultMaxDepth: 1})

	rep, err := svc.Analyze(context.Background(), models.AnalyzeRequest{OrgID: "org-1", NodeID: "email"})
	if err != nil {
		t.Fatal(err)
	}
	if rep.MaxDepth != 1 {
		t.Errorf("MaxDepth = %d, want 1", rep.MaxDepth)
	}

	rep, err = svc.Analyze(context.Background(), models.AnalyzeRequest{OrgID: "org-1", NodeID: "email", MaxDepth: ptr(0)})
	if err != nil {
		t.Fatal(err)
	}
	if rep.MaxDepth != 0 {
		t.Errorf("explicit MaxDepth = %d, want 0", rep.MaxDepth)
	}
}

func TestImpactService_DeepHorizon(t *testing.T) {
	svc, _ := newTestImpactService(t, ImpactOptions{DefaultMaxDepth: 500})

	rep, err := svc.Analyze(context.Background(), models.AnalyzeRequest{OrgID: "org-1", NodeID: "email", MaxDepth: ptr(100)})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.MaxDepth != 100 || rep.Summary.TotalCount != 3 {
		t.Errorf("MaxDepth = %d, summary = %+v", rep.MaxDepth, rep.Summary)
	}

	rep, err = svc.Analyze(context.Background(), models.AnalyzeRequest{OrgID: "org-1", NodeID: "email"})
	if err != nil {
		t.Fatal(err)
	}
	if rep.MaxDepth != 500 {
		t.Errorf("default MaxDepth = %d, want 500", rep.MaxDepth)
	}
}

func TestImpactService_AnalyzeErrors(t *testing.T) {
	svc, _ := newTestImpactService(t, ImpactOptions{})

	tests := []struct {
		name string
		req  models.AnalyzeRequest
		want error
	}{
		{name: "unknown org", req: models.AnalyzeRequest{OrgID: "nope", NodeID: "email"}, want: models.ErrOrgNotFound},
		{name: "unknown node", req: models.AnalyzeRequest{OrgID: "org-1", NodeID: "nope"}, want: models.ErrNodeNotFound},
		{name: "invalid", req: models.AnalyzeRequest{OrgID: "org-1"}, want: models.ErrInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Analyze(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestImpactService_TimeoutWaitingForWorker(t *testing.T) {
	svc, _ := newTestImpactService(t, ImpactOptions{Workers: 1, Timeout: 20 * time.Millisecond})

	// Hold the only slot.
	if err := svc.pool.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer svc.pool.Release(1)

	_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{OrgID: "org-1", NodeID: "email"})
	if !errors.Is(err, models.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestAnalysisBudget(t *testing.T) {
	limit := 5 * time.Second

	tests := []struct {
		name      string
		timeoutMs int
		want      time.Duration
	}{
		{"unset", 0, limit},
		{"negative", -1, limit},
		{"shorter", 250, 250 * time.Millisecond},
		{"equal", 5000, limit},
		{"longer", 60_000, limit},
		{"overflowing", 10_000_000_000_000, limit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := analysisBudget(limit, tc.timeoutMs); got != tc.want {
				t.Errorf("analysisBudget(%s, %d) = %s, want %s", limit, tc.timeoutMs, got, tc.want)
			}
		})
	}
}

func TestImpactService_HugeTimeoutUsesCap(t *testing.T) {
	svc, _ := newTestImpactService(t, ImpactOptions{Timeout: time.Second})

	rep, err := svc.Analyze(context.Background(), models.AnalyzeRequest{
		OrgID: "org-1", NodeID: "email", TimeoutMs: 10_000_000_000_000,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Summary.TotalCount != 3 {
		t.Errorf("summary = %+v", rep.Summary)
	}
}

func TestImpactService_CancelledContext(t *testing.T) {
	svc, _ := newTestImpactService(t, ImpactOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, models.AnalyzeRequest{OrgID: "org-1", NodeID: "email"})
	if !errors.Is(err, models.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestImpactService_SearchAndGetNode(t *testing.T) {
	svc, _ := newTestImpactService(t, ImpactOptions{})

	nodes, err := svc.Search(context.Background(), "org-1", "email", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 || nodes[0].ID != "email" || nodes[1].ID != "formula" {
		t.Errorf("Search = %v", nodes)
	}

	if _, err := svc.Search(context.Background(), "nope", "email", 10); !errors.Is(err, models.ErrOrgNotFound) {
		t.Errorf("expected ErrOrgNotFound, got %v", err)
	}

	n, err := svc.GetNode(context.Background(), "org-1", "flow")
	if err != nil || n.Type != models.NodeTypeFlow {
		t.Errorf("GetNode = %v, %v", n, err)
	}

	if _, err := svc.GetNode(context.Background(), "org-1", "nope"); !errors.Is(err, models.ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}
