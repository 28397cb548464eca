package ws

import (
	"sort"
	"sync"
	"time"
)

const (
	defaultBufferMaxLen = 1000
	defaultBufferMaxAge = 1 * time.Hour
	bufferSweepInterval = 10 * time.Minute
)

// EventBuffer keeps each org's recent events, ordered by ID, so reconnecting
// subscribers can resume from the last event they saw. Events older than
// maxAge are never replayed even before the sweeper removes them.
type EventBuffer struct {
	mu     sync.RWMutex
	orgs   map[string][]Event
	maxAge time.Duration
	maxLen int
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewEventBuffer creates an EventBuffer holding at most maxLen events per
// org and starts its background sweeper.
func NewEventBuffer(maxLen int, maxAge time.Duration) *EventBuffer {
	eb := &EventBuffer{
		orgs:   make(map[string][]Event),
		maxAge: maxAge,
		maxLen: maxLen,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go eb.sweepLoop()
	return eb
}

// Stop halts the sweeper. It is safe to call more than once.
func (eb *EventBuffer) Stop() {
	eb.stopOnce.Do(func() { close(eb.stop) })
}

func (eb *EventBuffer) sweepLoop() {
	ticker := time.NewTicker(bufferSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-eb.stop:
			return
		case <-ticker.C:
			eb.sweep()
		}
	}
}

// sweep trims expired events and drops orgs left with none.
func (eb *EventBuffer) sweep() {
	cutoff := eb.now().Add(-eb.maxAge)

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for org, buf := range eb.orgs {
		if buf = unexpired(buf, cutoff); len(buf) == 0 {
			delete(eb.orgs, org)
			continue
		}
		eb.orgs[org] = buf
	}
}

// unexpired returns the suffix of buf whose events are not before cutoff.
func unexpired(buf []Event, cutoff time.Time) []Event {
	i := sort.Search(len(buf), func(i int) bool { return !buf[i].Time.Before(cutoff) })
	return buf[i:]
}

// Append records event for orgID, dropping expired events and the oldest
// ones beyond maxLen.
func (eb *EventBuffer) Append(orgID string, event *Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	buf := append(unexpired(eb.orgs[orgID], eb.now().Add(-eb.maxAge)), *event)
	if over := len(buf) - eb.maxLen; over > 0 {
		buf = buf[over:]
	}
	eb.orgs[orgID] = buf
}

// live returns orgID's unexpired events. Callers hold at least a read lock.
func (eb *EventBuffer) live(orgID string) []Event {
	return unexpired(eb.orgs[orgID], eb.now().Add(-eb.maxAge))
}

// Since returns a copy of orgID's events with ID > lastEventID, or nil when
// there are none.
func (eb *EventBuffer) Since(orgID string, lastEventID uint64) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	buf := eb.live(orgID)
	i := sort.Search(len(buf), func(i int) bool { return buf[i].ID > lastEventID })
	if i == len(buf) {
		return nil
	}

	return append([]Event(nil), buf[i:]...)
}

// OldestID returns the oldest replayable event ID for orgID, or 0.
func (eb *EventBuffer) OldestID(orgID string) uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if buf := eb.live(orgID); len(buf) > 0 {
		return buf[0].ID
	}
	return 0
}
