// Package engine implements the offline-first reservation engine: an
// optimistic local executor over a versioned seat cache, a durable priority
// queue of unconfirmed operations, and a sync scheduler that replays the
// queue against the remote service when connectivity allows.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seatq/seatq/internal/config"
	"github.com/seatq/seatq/internal/models"
	"github.com/seatq/seatq/internal/remote"
	"github.com/seatq/seatq/internal/store"
)

// RemoteAPI is the slice of the seat service the engine needs. *remote.Client
// satisfies it; tests substitute a scripted implementation.
type RemoteAPI interface {
	HealthCheck(ctx context.Context) (*remote.HealthResponse, error)
	ReserveSeats(ctx context.Context, chart models.Context, seatIDs []string) (*remote.OpResponse, error)
	CheckInSeats(ctx context.Context, chart models.Context, seatIDs []string) (*remote.OpResponse, error)
	UpdateSeatData(ctx context.Context, chart models.Context, seatID string, fields map[string]string) (*remote.OpResponse, error)
	AssignWalkIn(ctx context.Context, chart models.Context, numSeats int, consecutive bool) (*remote.OpResponse, error)
	GetSeatData(ctx context.Context, chart models.Context) (*remote.SeatDataResponse, error)
}

// Options tunes the engine. Zero values fall back to the config defaults.
type Options struct {
	SyncInterval   time.Duration
	ProbeInterval  time.Duration
	RetryDelay     time.Duration
	SyncTimeout    time.Duration
	CacheTTL       time.Duration
	GraceWindow    time.Duration
	MaxRetryCount  int
	MaxQueueSize   int
	ErrorThreshold int
	EscalateAfter  int

	// DefaultChart, when set, is refetched after each sync pass.
	DefaultChart models.Context

	// Now overrides the clock in tests.
	Now func() time.Time
}

// OptionsFromConfig builds Options from the resolved project config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SyncInterval:   cfg.GetSyncInterval(),
		ProbeInterval:  cfg.GetProbeInterval(),
		RetryDelay:     cfg.GetRetryDelay(),
		SyncTimeout:    cfg.GetSyncTimeout(),
		CacheTTL:       cfg.GetCacheTTL(),
		GraceWindow:    cfg.GetGraceWindow(),
		MaxRetryCount:  cfg.GetMaxRetryCount(),
		MaxQueueSize:   cfg.GetMaxQueueSize(),
		ErrorThreshold: cfg.GetErrorThreshold(),
		EscalateAfter:  cfg.GetEscalateAfter(),
		DefaultChart:   cfg.GetContext(),
	}
}

// Engine coordinates the queue, cache and scheduler. Safe for concurrent use.
type Engine struct {
	st    store.Store
	api   RemoteAPI
	queue *opQueue
	cache *cacheStore
	bus   *eventBus
	now   func() time.Time

	syncInterval   time.Duration
	probeInterval  time.Duration
	retryDelay     time.Duration
	syncTimeout    time.Duration
	graceWindow    time.Duration
	maxRetryCount  int
	errorThreshold int
	escalateAfter  int
	defaultChart   models.Context

	syncReq chan struct{}

	mu        sync.Mutex
	online    bool
	syncing   bool
	badPasses int
	escalated bool
	state     *models.SyncState
}

// New builds an engine over the given store and remote API, restoring the
// persisted queue and sync state.
func New(st store.Store, api RemoteAPI, opts Options) (*Engine, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	applyDefaults(&opts)

	queue, err := newOpQueue(st, opts.MaxQueueSize, opts.Now)
	if err != nil {
		return nil, fmt.Errorf("restore queue: %w", err)
	}
	state, err := st.LoadSyncState()
	if err != nil {
		return nil, fmt.Errorf("restore sync state: %w", err)
	}

	return &Engine{
		st:             st,
		api:            api,
		queue:          queue,
		cache:          newCacheStore(st, opts.CacheTTL, opts.Now),
		bus:            newEventBus(),
		now:            opts.Now,
		syncInterval:   opts.SyncInterval,
		probeInterval:  opts.ProbeInterval,
		retryDelay:     opts.RetryDelay,
		syncTimeout:    opts.SyncTimeout,
		graceWindow:    opts.GraceWindow,
		maxRetryCount:  opts.MaxRetryCount,
		errorThreshold: opts.ErrorThreshold,
		escalateAfter:  opts.EscalateAfter,
		defaultChart:   opts.DefaultChart,
		syncReq:        make(chan struct{}, 1),
		state:          state,
	}, nil
}

func applyDefaults(opts *Options) {
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = config.DefaultSyncInterval
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = config.DefaultProbeInterval
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = config.DefaultRetryDelay
	}
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = config.DefaultSyncTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = config.DefaultCacheTTL
	}
	if opts.GraceWindow <= 0 {
		opts.GraceWindow = config.DefaultGraceWindow
	}
	if opts.MaxRetryCount <= 0 {
		opts.MaxRetryCount = config.DefaultMaxRetryCount
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = config.DefaultMaxQueueSize
	}
	if opts.EscalateAfter <= 0 {
		opts.EscalateAfter = config.DefaultEscalateAfter
	}
}

// Status returns a point-in-time snapshot for status displays.
func (e *Engine) Status() models.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	errs := make([]models.SyncError, len(e.state.SyncErrors))
	copy(errs, e.state.SyncErrors)

	return models.EngineStatus{
		Online:             e.online,
		SyncInProgress:     e.syncing,
		QueueLength:        e.queue.Len(),
		LastSyncAttempt:    e.state.LastSyncAttempt,
		LastSuccessfulSync: e.state.LastSuccessfulSync,
		SyncErrors:         errs,
	}
}

// Subscribe returns a channel of engine events and a cancel func. Slow
// consumers miss events rather than blocking the engine.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.bus.subscribe()
}

// RefreshCache fetches the authoritative seat map for the chart and replaces
// the cache entry.
func (e *Engine) RefreshCache(ctx context.Context, chart models.Context) error {
	if chart.IsZero() {
		return ErrMissingContext
	}
	resp, err := e.api.GetSeatData(ctx, chart)
	if err != nil {
		return fmt.Errorf("fetch seat data: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("fetch seat data rejected: %s", resp.Error)
	}
	e.cache.Write(chart, cloneSeatMap(resp.SeatMap))
	return nil
}

// CachedSeats returns the cached entry for the chart, or nil when absent or
// expired.
func (e *Engine) CachedSeats(chart models.Context) *models.CacheEntry {
	return e.cache.Read(chart)
}

// ClearCache drops the cache entry for the chart.
func (e *Engine) ClearCache(chart models.Context) {
	e.cache.Clear(chart)
}

// QueueSnapshot returns a copy of the pending operations in replay order.
func (e *Engine) QueueSnapshot() []models.Operation {
	return e.queue.Snapshot()
}

// QueueLen returns the number of pending operations.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// ClearQueue discards all pending operations and returns how many were
// dropped.
func (e *Engine) ClearQueue() int {
	ops := e.queue.DequeueAll()
	return len(ops)
}

// RecentOpLog returns up to limit enqueue log entries, newest first.
func (e *Engine) RecentOpLog(limit int) ([]store.OpLogEntry, error) {
	return e.st.RecentOpLog(limit)
}

// persistStateLocked saves the sync state; failures are non-fatal and the
// in-memory state stays authoritative. Callers hold e.mu.
func (e *Engine) persistStateLocked() {
	if err := e.st.SaveSyncState(e.state); err != nil {
		slog.Warn("persist sync state, continuing in-memory", "err", err)
	}
}
