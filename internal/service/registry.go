package service

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexalabs/impactgraph/internal/graph"
	"github.com/nexalabs/impactgraph/internal/models"
)

// Snapshot is one immutable, versioned graph serving an org.
type Snapshot struct {
	OrgID   string
	Version uint64
	Digest  string
	BuiltAt time.Time
	Graph   *graph.Graph
}

// Summary describes s without exposing the graph.
func (s *Snapshot) Summary() models.SnapshotSummary {
	return models.SnapshotSummary{
		OrgID:      s.OrgID,
		Version:    s.Version,
		Digest:     s.Digest,
		BuiltAt:    s.BuiltAt,
		GraphStats: s.Graph.Stats(),
	}
}

// orgSlot holds the serving snapshot for one org. buildMu serialises
// builds; readers only ever load current.
type orgSlot struct {
	current atomic.Pointer[Snapshot]
	buildMu sync.Mutex
}

// SnapshotRegistry maps org ids to their serving snapshots. The mutex
// guards slot creation only; reading a snapshot is a lock-free load.
type SnapshotRegistry struct {
	mu    sync.RWMutex
	slots map[string]*orgSlot
}

// NewSnapshotRegistry creates an empty registry.
func NewSnapshotRegistry() *SnapshotRegistry {
	return &SnapshotRegistry{slots: make(map[string]*orgSlot)}
}

// Load returns the serving snapshot for orgID.
func (r *SnapshotRegistry) Load(orgID string) (*Snapshot, error) {
	r.mu.RLock()
	slot, ok := r.slots[orgID]
	r.mu.RUnlock()

	if !ok {
		return nil, models.ErrOrgNotFound
	}

	snap := slot.current.Load()
	if snap == nil {
		return nil, models.ErrOrgNotFound
	}

	return snap, nil
}

// List returns every serving snapshot ordered by org id.
func (r *SnapshotRegistry) List() []*Snapshot {
	r.mu.RLock()
	out := make([]*Snapshot, 0, len(r.slots))
	for _, slot := range r.slots {
		if snap := slot.current.Load(); snap != nil {
			out = append(out, snap)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].OrgID < out[j].OrgID })

	return out
}

func (r *SnapshotRegistry) slot(orgID string) *orgSlot {
	r.mu.RLock()
	slot, ok := r.slots[orgID]
	r.mu.RUnlock()

	if ok {
		return slot
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slot, ok = r.slots[orgID]; !ok {
		slot = &orgSlot{}
		r.slots[orgID] = slot
	}

	return slot
}

// Replace runs build under the org's exclusive build lock and, on success,
// atomically installs the returned snapshot. build receives the version the
// new snapshot must carry. A failed build leaves the serving snapshot untouched.
func (r *SnapshotRegistry) Replace(orgID string, build func(version uint64) (*Snapshot, error)) (*Snapshot, error) {
	slot := r.slot(orgID)

	slot.buildMu.Lock()
	defer slot.buildMu.Unlock()

	next := uint64(1)
	if cur := slot.current.Load(); cur != nil {
		next = cur.Version + 1
	}

	snap, err := build(next)
	if err != nil {
		return nil, err
	}

	slot.current.Store(snap)

	return snap, nil
}

// Install stores snap as-is, unless a snapshot with an equal or higher
// version is already serving. It reports whether snap was installed.
func (r *SnapshotRegistry) Install(snap *Snapshot) bool {
	slot := r.slot(snap.OrgID)

	slot.buildMu.Lock()
	defer slot.buildMu.Unlock()

	if cur := slot.current.Load(); cur != nil && cur.Version >= snap.Version {
		return false
	}

	slot.current.Store(snap)

	return true
}
