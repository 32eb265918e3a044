package events

import (
	"sync"

	"github.com/aji70/pay-nova/core/types"
)

const defaultBacklog = 1024

// Recorder is an Emitter that retains a bounded backlog of emitted events in
// memory. The RPC layer exposes the backlog to off-chain indexers that poll
// for the audit trail. Once the backlog is full the oldest entries are
// discarded.
type Recorder struct {
	mu      sync.RWMutex
	backlog int
	events  []*types.Event
	next    uint64
}

// NewRecorder creates a recorder retaining at most backlog events. A
// non-positive backlog falls back to the default.
func NewRecorder(backlog int) *Recorder {
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	return &Recorder{backlog: backlog}
}

// Emit stores the event payload if the event exposes one. Events without a
// wire payload are dropped silently.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	payloader, ok := evt.(Payloader)
	if !ok {
		return
	}
	payload := payloader.Event()
	if payload == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, payload)
	r.next++
	if len(r.events) > r.backlog {
		r.events = r.events[len(r.events)-r.backlog:]
	}
}

// List returns a copy of the retained events in emission order.
func (r *Recorder) List() []*types.Event {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count reports the total number of events observed since startup, including
// entries that have since been evicted from the backlog.
func (r *Recorder) Count() uint64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.next
}
