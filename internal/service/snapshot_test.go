package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nexalabs/impactgraph/internal/models"
)

func emailPayload(org string) models.SyncRequest {
	return models.SyncRequest{
		OrgID: org,
		Nodes: []models.MetadataNode{
			{ID: "email", Name: "Email", Type: models.NodeTypeField},
			{ID: "flow", Name: "Lead Routing", Type: models.NodeTypeFlow},
			{ID: "report", Name: "Lead Report", Type: models.NodeTypeReport},
			{ID: "formula", Name: "Email Domain", Type: models.NodeTypeField},
		},
		Edges: []models.DependencyEdge{
			{From: "flow", To: "email", DeclaredImpact: models.ImpactHigh},
			{From: "report", To: "email", DeclaredImpact: models.ImpactMedium},
			{From: "formula", To: "email", DeclaredImpact: models.ImpactLow},
		},
	}
}

func newTestSnapshotService(archive *mockArchive, pub *mockPublisher, q *mockEnqueuer) (*SnapshotService, *SnapshotRegistry) {
	reg := NewSnapshotRegistry()

	svc := NewSnapshotService(reg, nil, nil, nil, testLogger())
	if archive != nil {
		svc.archive = archive
	}
	if pub != nil {
		svc.events = pub
	}
	if q != nil {
		svc.auditWorker = q
	}

	return svc, reg
}

func TestSnapshotService_SyncAndVersions(t *testing.T) {
	archive := &mockArchive{}
	pub := &mockPublisher{}
	q := &mockEnqueuer{}
	svc, reg := newTestSnapshotService(archive, pub, q)

	res, err := svc.Sync(context.Background(), emailPayload("org-1"))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if !res.Accepted || res.Version != 1 || res.NodeCount != 4 || res.EdgeCount != 3 || res.Coalesced {
		t.Errorf("result = %+v", res)
	}

	res, err = svc.Sync(context.Background(), emailPayload("org-1"))
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if res.Version != 2 {
		t.Errorf("version = %d, want 2", res.Version)
	}

	snap, err := reg.Load("org-1")
	if err != nil || snap.Version != 2 {
		t.Fatalf("Load = %v, %v", snap, err)
	}

	if len(archive.saved) != 2 || archive.saved[1].Version != 2 || archive.saved[1].NodeCount != 4 {
		t.Errorf("archived = %+v", archive.saved)
	}

	if got := pub.types(); len(got) != 2 || got[0] != EventSnapshotSwapped {
		t.Errorf("events = %v", got)
	}

	if got := q.actions(); len(got) != 2 || got[0] != models.AuditActionSync {
		t.Errorf("audit = %v", got)
	}
}

func TestSnapshotService_RejectedKeepsPrevious(t *testing.T) {
	pub := &mockPublisher{}
	q := &mockEnqueuer{}
	svc, reg := newTestSnapshotService(nil, pub, q)

	if _, err := svc.Sync(context.Background(), emailPayload("org-1")); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	bad := emailPayload("org-1")
	bad.Edges = append(bad.Edges,
		models.DependencyEdge{From: "flow", To: "email", DeclaredImpact: models.ImpactLow},
		models.DependencyEdge{From: "flow", To: "ghost", DeclaredImpact: models.ImpactLow},
	)

	_, err := svc.Sync(context.Background(), bad)

	var ge *models.GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GraphError, got %v", err)
	}
	if len(ge.Problems) != 2 {
		t.Errorf("problems = %v, want 2", ge.Problems)
	}

	snap, _ := reg.Load("org-1")
	if snap.Version != 1 {
		t.Errorf("serving version = %d, want 1", snap.Version)
	}

	if got := pub.types(); got[len(got)-1] != EventSyncRejected {
		t.Errorf("events = %v", got)
	}
	if got := q.actions(); got[len(got)-1] != models.AuditActionSyncRejected {
		t.Errorf("audit = %v", got)
	}
}

func TestSnapshotService_FirstSyncRejectedLeavesOrgUnknown(t *testing.T) {
	svc, reg := newTestSnapshotService(nil, nil, nil)

	bad := models.SyncRequest{OrgID: "org-x", Edges: []models.DependencyEdge{{From: "a", To: "b", DeclaredImpact: models.ImpactLow}}}
	if _, err := svc.Sync(context.Background(), bad); err == nil {
		t.Fatal("expected error")
	}

	if _, err := reg.Load("org-x"); !errors.Is(err, models.ErrOrgNotFound) {
		t.Errorf("expected ErrOrgNotFound, got %v", err)
	}
}

func TestSnapshotService_InvalidEnvelope(t *testing.T) {
	svc, _ := newTestSnapshotService(nil, nil, nil)

	if _, err := svc.Sync(context.Background(), models.SyncRequest{}); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

// blockingArchive holds the leader's build open until release is closed.
type blockingArchive struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingArchive) SaveSnapshot(_ context.Context, _ models.ArchivedSnapshot) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func (b *blockingArchive) LatestSnapshots(_ context.Context) ([]models.ArchivedSnapshot, error) {
	return nil, nil
}

func (b *blockingArchive) GetSnapshot(_ context.Context, _ string, _ uint64) (*models.ArchivedSnapshot, error) {
	return nil, models.ErrNotFound
}

func TestSnapshotService_CoalescesIdenticalSyncs(t *testing.T) {
	reg := NewSnapshotRegistry()
	archive := &blockingArchive{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewSnapshotService(reg, archive, nil, nil, testLogger())

	results := make(chan *models.SyncResult, 2)
	go func() {
		res, err := svc.Sync(context.Background(), emailPayload("org-1"))
		if err != nil {
			t.Errorf("leader Sync: %v", err)
		}
		results <- res
	}()

	<-archive.started

	go func() {
		res, err := svc.Sync(context.Background(), emailPayload("org-1"))
		if err != nil {
			t.Errorf("joiner Sync: %v", err)
		}
		results <- res
	}()

	// Let the joiner reach the in-flight call before the leader finishes.
	time.Sleep(50 * time.Millisecond)
	close(archive.release)

	a, b := <-results, <-results
	if a == nil || b == nil {
		t.Fatal("missing results")
	}

	if a.Version != 1 || b.Version != 1 {
		t.Errorf("versions = %d, %d; want a single build", a.Version, b.Version)
	}
	if a.Coalesced == b.Coalesced {
		t.Errorf("exactly one result should be coalesced: %v, %v", a.Coalesced, b.Coalesced)
	}
}

func TestSnapshotService_Restore(t *testing.T) {
	good := emailPayload("org-1")
	bad := models.SyncRequest{OrgID: "org-2", Edges: []models.DependencyEdge{{From: "a", To: "b", DeclaredImpact: models.ImpactLow}}}

	archive := &mockArchive{latest: func(context.Context) ([]models.ArchivedSnapshot, error) {
		return []models.ArchivedSnapshot{
			{OrgID: "org-1", Version: 9, Digest: good.Digest(), Payload: good, CreatedAt: time.Unix(1700000000, 0)},
			{OrgID: "org-2", Version: 3, Payload: bad},
		}, nil
	}}
	svc, reg := newTestSnapshotService(archive, nil, nil)

	n, err := svc.Restore(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Restore = %d, %v", n, err)
	}

	snap, err := reg.Load("org-1")
	if err != nil || snap.Version != 9 {
		t.Fatalf("Load = %v, %v", snap, err)
	}

	res, err := svc.Sync(context.Background(), good)
	if err != nil || res.Version != 10 {
		t.Errorf("post-restore Sync = %+v, %v", res, err)
	}

	orgs, _ := svc.ListOrgs(context.Background())
	if len(orgs) != 1 || orgs[0].OrgID != "org-1" || orgs[0].NodeCount != 4 {
		t.Errorf("ListOrgs = %+v", orgs)
	}
}

func TestSnapshotService_RestoreError(t *testing.T) {
	archive := &mockArchive{latest: func(context.Context) ([]models.ArchivedSnapshot, error) {
		return nil, errors.New("db down")
	}}
	svc, _ := newTestSnapshotService(archive, nil, nil)

	if _, err := svc.Restore(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestSnapshotService_GetOrg(t *testing.T) {
	svc, _ := newTestSnapshotService(nil, nil, nil)

	if _, err := svc.GetOrg(context.Background(), "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.Sync(context.Background(), emailPayload("org-1")); err != nil {
		t.Fatal(err)
	}

	sum, err := svc.GetOrg(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("GetOrg: %v", err)
	}
	if sum.Version != 1 || sum.NodesByType[models.NodeTypeField] != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestSnapshotRegistry_ConcurrentReadsDuringSwap(t *testing.T) {
	svc, reg := newTestSnapshotService(nil, nil, nil)
	if _, err := svc.Sync(context.Background(), emailPayload("org-1")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := reg.Load("org-1")
				if err != nil {
					t.Errorf("Load: %v", err)
					return
				}
				if _, err := snap.Graph.FindDependents(context.Background(), "email", 0); err != nil {
					t.Errorf("FindDependents: %v", err)
					return
				}
			}
		}()
	}

	for i := range 20 {
		p := emailPayload("org-1")
		p.Nodes[0].Description = string(rune('a' + i))
		if _, err := svc.Sync(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}

	close(stop)
	wg.Wait()
}

func TestSnapshotService_Reload(t *testing.T) {
	payload := emailPayload("org-1")
	fetched := 0

	archive := &mockArchive{get: func(_ context.Context, orgID string, version uint64) (*models.ArchivedSnapshot, error) {
		fetched++
		return &models.ArchivedSnapshot{OrgID: orgID, Version: version, Digest: payload.Digest(), Payload: payload}, nil
	}}
	pub := &mockPublisher{}
	svc, reg := newTestSnapshotService(archive, pub, nil)

	swapped, err := svc.Reload(context.Background(), "org-1", 4)
	if err != nil || !swapped {
		t.Fatalf("Reload = %v, %v", swapped, err)
	}

	if snap, _ := reg.Load("org-1"); snap.Version != 4 {
		t.Errorf("version = %d, want 4", snap.Version)
	}

	// Same or older versions are ignored without touching the archive.
	swapped, err = svc.Reload(context.Background(), "org-1", 4)
	if err != nil || swapped || fetched != 1 {
		t.Errorf("repeat Reload = %v, %v (fetched %d)", swapped, err, fetched)
	}

	if got := pub.types(); len(got) != 1 || got[0] != EventSnapshotSwapped {
		t.Errorf("events = %v", got)
	}
}

func TestSnapshotService_ReloadMissing(t *testing.T) {
	archive := &mockArchive{get: func(context.Context, string, uint64) (*models.ArchivedSnapshot, error) {
		return nil, models.ErrNotFound
	}}
	svc, _ := newTestSnapshotService(archive, nil, nil)

	if _, err := svc.Reload(context.Background(), "org-1", 2); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
