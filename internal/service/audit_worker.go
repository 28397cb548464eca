package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/metrics"
)

// AuditJob represents a single audit entry to be recorded.
type AuditJob struct {
	OrgID    string
	Action   string
	EntityID string
	Detail   map[string]any
}

// AuditEnqueuer accepts audit jobs without blocking the caller.
type AuditEnqueuer interface {
	Enqueue(job *AuditJob)
}

// auditWriteTimeout bounds a single audit insert. Jobs drained at shutdown
// get the same budget even though the run context is already cancelled.
const auditWriteTimeout = 5 * time.Second

// AuditWorker buffers audit entries and writes them via a single worker goroutine.
type AuditWorker struct {
	auditor Auditor
	log     *logrus.Logger
	jobs    chan *AuditJob
}

// NewAuditWorker creates an AuditWorker with the given queue capacity.
func NewAuditWorker(auditor Auditor, log *logrus.Logger, queueSize int) *AuditWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &AuditWorker{
		auditor: auditor,
		log:     log,
		jobs:    make(chan *AuditJob, queueSize),
	}
}

// Enqueue adds an audit job. Non-blocking; drops the job if the queue is full.
func (w *AuditWorker) Enqueue(job *AuditJob) {
	select {
	case w.jobs <- job:
		metrics.AuditQueueDepth.Set(float64(len(w.jobs)))
	default:
		metrics.AuditDropped.WithLabelValues("queue_full").Inc()
		w.log.WithFields(logrus.Fields{"action": job.Action, "org_id": job.OrgID}).Warn("audit.dropped")
	}
}

// Run processes audit jobs until the context is cancelled, then drains remaining jobs.
func (w *AuditWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *AuditWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *AuditWorker) process(job *AuditJob) {
	metrics.AuditQueueDepth.Set(float64(len(w.jobs)))

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := w.auditor.RecordAudit(ctx, job.OrgID, job.Action, job.EntityID, job.Detail); err != nil {
		metrics.AuditDropped.WithLabelValues("write_failed").Inc()
		w.log.WithError(err).WithFields(logrus.Fields{
			"action":    job.Action,
			"org_id":    job.OrgID,
			"entity_id": job.EntityID,
		}).Warn("audit.write_failed")
	}
}

// auditAsync enqueues an audit entry via the AuditWorker (best-effort, non-blocking).
func auditAsync(w AuditEnqueuer, orgID, action, entityID string, detail map[string]any) {
	if w == nil {
		return
	}

	w.Enqueue(&AuditJob{OrgID: orgID, Action: action, EntityID: entityID, Detail: detail})
}
