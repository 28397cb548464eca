package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nexalabs/impactgraph/internal/models"
)

type mockPurger struct {
	calls atomic.Int32
	err   error
}

func (m *mockPurger) PurgeOldEntries(_ context.Context, retentionDays int) (int, error) {
	m.calls.Add(1)
	if retentionDays != 30 {
		return 0, errors.New("unexpected retention")
	}
	return 2, m.err
}

func TestRunAuditRetention_PurgesUntilCancelled(t *testing.T) {
	p := &mockPurger{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunAuditRetention(ctx, p, 30, 5*time.Millisecond, testLogger())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("purge ran %d times, want >= 3", p.calls.Load())
		}
		time.Sleep(time.Millisecond)
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retention loop did not stop")
	}
}

type mockAuditStore struct {
	mockAuditor
	query func(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
}

func (m *mockAuditStore) QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.query(ctx, opts)
}

func TestAuditService_PassesThrough(t *testing.T) {
	st := &mockAuditStore{query: func(_ context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
		return []models.AuditEntry{{OrgID: opts.OrgID, Action: opts.Action}}, true, nil
	}}
	svc := NewAuditService(st, testLogger())

	if err := svc.RecordAudit(context.Background(), "org-1", models.AuditActionSync, "d", nil); err != nil {
		t.Fatal(err)
	}
	if calls := st.getCalls(); len(calls) != 1 || calls[0].OrgID != "org-1" {
		t.Errorf("calls = %+v", calls)
	}

	entries, more, err := svc.QueryAudit(context.Background(), models.AuditQueryOpts{OrgID: "org-1", Action: models.AuditActionSync})
	if err != nil || !more || len(entries) != 1 || entries[0].Action != models.AuditActionSync {
		t.Errorf("QueryAudit = %+v, %v, %v", entries, more, err)
	}
}
