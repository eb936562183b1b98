package engine

import (
	"sync"
	"time"
)

// EventKind classifies engine events.
type EventKind string

const (
	EventConnectivity  EventKind = "connectivity"
	EventSyncStarted   EventKind = "sync_started"
	EventSyncFinished  EventKind = "sync_finished"
	EventOpSynced      EventKind = "op_synced"
	EventOpFailed      EventKind = "op_failed"
	EventConflict      EventKind = "conflict"
	EventSyncEscalated EventKind = "sync_escalated"
)

// Event is a structured status notification. The engine emits events instead
// of rendering anything itself; UI layers subscribe and decide how to present
// them.
type Event struct {
	Kind    EventKind
	Time    time.Time
	Online  bool
	OpID    string
	Message string

	// Sync pass counters, set on EventSyncFinished.
	Succeeded int
	Retried   int
	Failed    int
	Conflicts int
}

const eventBuffer = 64

type eventBus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[chan Event]struct{})}
}

// subscribe returns a buffered channel of events and a cancel func.
func (b *eventBus) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// publish delivers ev to all subscribers. Slow subscribers drop events rather
// than blocking the engine.
func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
