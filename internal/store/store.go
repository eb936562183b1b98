// Package store persists the operation queue, per-context seat caches, and
// sync state. Access goes through the Store interface so the engine can be
// tested against an in-memory substitute.
package store

import (
	"time"

	"github.com/seatq/seatq/internal/models"
)

// OpLogEntry records one enqueue for the bounded operation log.
type OpLogEntry struct {
	LoggedAt    time.Time
	OpID        string
	OpType      models.OpType
	ContextKey  string
	QueueLength int
}

// Store is the durable backing for the sync engine. Implementations must
// tolerate concurrent calls from the scheduler goroutine and the caller.
type Store interface {
	// LoadQueue returns all queued operations in persisted order.
	LoadQueue() ([]models.Operation, error)
	// SaveQueue atomically replaces the persisted queue.
	SaveQueue(ops []models.Operation) error

	ReadCache(key string) (*models.CacheEntry, error)
	WriteCache(key string, entry *models.CacheEntry) error
	DeleteCache(key string) error

	LoadSyncState() (*models.SyncState, error)
	SaveSyncState(state *models.SyncState) error

	AppendOpLog(entry OpLogEntry) error
	RecentOpLog(limit int) ([]OpLogEntry, error)

	Close() error
}
