package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type  string          `json:"type"`
	ID    uint64          `json:"id"`
	OrgID string          `json:"orgId"`
	Data  json.RawMessage `json:"data"`
	Time  time.Time       `json:"time"`
}

// SubscribeMsg is sent by the client to request replay from LastEventID.
// A non-empty Events list narrows delivery to those event types; an empty
// list restores delivery of every type.
type SubscribeMsg struct {
	Type        string   `json:"type"`
	LastEventID uint64   `json:"last_event_id"`
	Events      []string `json:"events,omitempty"`
}

// eventFilter is the set of event types a client accepts. A nil filter
// accepts everything.
type eventFilter map[string]struct{}

func newEventFilter(types []string) eventFilter {
	if len(types) == 0 {
		return nil
	}

	f := make(eventFilter, len(types))
	for _, t := range types {
		f[t] = struct{}{}
	}

	return f
}

func (f eventFilter) accepts(eventType string) bool {
	if f == nil {
		return true
	}
	_, ok := f[eventType]

	return ok
}

// ResetMsg tells the client to do a full refresh (requested events too old).
type ResetMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// EventSequence tracks monotonic event IDs per org.
type EventSequence struct {
	mu       sync.Mutex
	counters map[string]*atomic.Uint64
}

// NewEventSequence creates a new EventSequence.
func NewEventSequence() *EventSequence {
	return &EventSequence{
		counters: make(map[string]*atomic.Uint64),
	}
}

// Next returns the next sequence number for an org.
func (es *EventSequence) Next(orgID string) uint64 {
	es.mu.Lock()
	counter, ok := es.counters[orgID]
	if !ok {
		counter = &atomic.Uint64{}
		es.counters[orgID] = counter
	}
	es.mu.Unlock()

	return counter.Add(1)
}
