package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu    sync.Mutex
	calls []AuditJob

	err error
}

func (m *mockAuditor) RecordAudit(_ context.Context, orgID, action, entityID string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, AuditJob{
		OrgID:    orgID,
		Action:   action,
		EntityID: entityID,
		Detail:   detail,
	})
	return m.err
}

func (m *mockAuditor) getCalls() []AuditJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]AuditJob, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// mockEnqueuer records enqueued audit jobs synchronously.
type mockEnqueuer struct {
	mu   sync.Mutex
	jobs []*AuditJob
}

func (m *mockEnqueuer) Enqueue(job *AuditJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockEnqueuer) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.Action)
	}
	return out
}

// mockArchive records saved snapshots and returns configured latest ones.
type mockArchive struct {
	mu    sync.Mutex
	saved []models.ArchivedSnapshot

	saveErr error
	latest  func(ctx context.Context) ([]models.ArchivedSnapshot, error)
	get     func(ctx context.Context, orgID string, version uint64) (*models.ArchivedSnapshot, error)
}

func (m *mockArchive) SaveSnapshot(_ context.Context, snap models.ArchivedSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, snap)
	return m.saveErr
}

func (m *mockArchive) LatestSnapshots(ctx context.Context) ([]models.ArchivedSnapshot, error) {
	return m.latest(ctx)
}

func (m *mockArchive) GetSnapshot(ctx context.Context, orgID string, version uint64) (*models.ArchivedSnapshot, error) {
	return m.get(ctx, orgID, version)
}

type publishedEvent struct {
	OrgID string
	Type  string
	Data  any
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(orgID, eventType string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{OrgID: orgID, Type: eventType, Data: data})
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}
