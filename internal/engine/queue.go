package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/seatq/seatq/internal/models"
	"github.com/seatq/seatq/internal/store"
)

// opQueue is the durable, priority-ordered list of unconfirmed operations.
// The in-memory slice is authoritative; every change is persisted best-effort
// so a storage failure never loses an accepted operation for the life of the
// process.
type opQueue struct {
	mu      sync.Mutex
	max     int
	ops     []models.Operation
	st      store.Store
	now     func() time.Time
	counter int64
}

func newOpQueue(st store.Store, max int, now func() time.Time) (*opQueue, error) {
	ops, err := st.LoadQueue()
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	return &opQueue{max: max, ops: ops, st: st, now: now}, nil
}

// Enqueue assigns id, timestamp, priority and status, inserts the operation
// in priority order and persists the queue. Returns the assigned id.
func (q *opQueue) Enqueue(op models.Operation) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.counter++
	op.ID = fmt.Sprintf("op_%d_%d_%s", now.UnixMilli(), q.counter, uuid.NewString()[:8])
	op.Priority = op.Type.Priority()
	op.EnqueuedAt = now
	op.Status = models.OpPending

	// At capacity, evict the oldest half (oldest-first) — never the
	// operation being enqueued.
	if len(q.ops) >= q.max {
		slog.Warn("queue at capacity, evicting oldest half", "size", len(q.ops))
		q.ops = evictOldestHalf(q.ops)
	}

	q.ops = append(q.ops, op)
	sort.SliceStable(q.ops, func(i, j int) bool {
		return q.ops[i].Priority < q.ops[j].Priority
	})

	q.persistLocked()

	if err := q.st.AppendOpLog(store.OpLogEntry{
		LoggedAt:    now,
		OpID:        op.ID,
		OpType:      op.Type,
		ContextKey:  op.Context.Key(),
		QueueLength: len(q.ops),
	}); err != nil {
		slog.Debug("queue: append op log", "err", err)
	}

	return op.ID
}

// evictOldestHalf drops the oldest half of ops by enqueue time, preserving
// the relative order of the survivors.
func evictOldestHalf(ops []models.Operation) []models.Operation {
	drop := len(ops) / 2
	if drop == 0 {
		return ops
	}

	byAge := make([]int, len(ops))
	for i := range byAge {
		byAge[i] = i
	}
	sort.SliceStable(byAge, func(a, b int) bool {
		return ops[byAge[a]].EnqueuedAt.Before(ops[byAge[b]].EnqueuedAt)
	})

	dropped := make(map[int]bool, drop)
	for _, idx := range byAge[:drop] {
		dropped[idx] = true
	}

	kept := ops[:0]
	for i, op := range ops {
		if !dropped[i] {
			kept = append(kept, op)
		}
	}
	return kept
}

// DequeueAll atomically snapshots and clears the queue for a replay pass.
// Unresolved operations are written back via Replace.
func (q *opQueue) DequeueAll() []models.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]models.Operation, len(q.ops))
	copy(snapshot, q.ops)
	q.ops = nil
	q.persistLocked()
	return snapshot
}

// Replace overwrites the queue with the remaining set after a replay pass.
func (q *opQueue) Replace(ops []models.Operation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ops = ops
	sort.SliceStable(q.ops, func(i, j int) bool {
		return q.ops[i].Priority < q.ops[j].Priority
	})
	q.persistLocked()
}

// Len returns the current queue length.
func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Snapshot returns a copy of the queue without clearing it.
func (q *opQueue) Snapshot() []models.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]models.Operation, len(q.ops))
	copy(snapshot, q.ops)
	return snapshot
}

func (q *opQueue) persistLocked() {
	if err := q.st.SaveQueue(q.ops); err != nil {
		slog.Warn("queue: persist, continuing in-memory", "err", err)
	}
}
