package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seatq/seatq/internal/models"
	"github.com/seatq/seatq/internal/store"
)

// cacheStore holds versioned per-context seat snapshots. The in-memory map is
// authoritative for the life of the process; persistence is best-effort so a
// storage failure degrades to memory-only operation instead of surfacing to
// the caller of a reservation.
type cacheStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*models.CacheEntry
	st      store.Store
	now     func() time.Time

	lastVersion string
	versionSeq  int
}

func newCacheStore(st store.Store, ttl time.Duration, now func() time.Time) *cacheStore {
	return &cacheStore{
		ttl:     ttl,
		entries: make(map[string]*models.CacheEntry),
		st:      st,
		now:     now,
	}
}

// Read returns the entry for the context if present and not expired. Expired
// entries are purged as a side effect and treated as absent.
func (c *cacheStore) Read(chart models.Context) *models.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLocked(chart)
}

func (c *cacheStore) readLocked(chart models.Context) *models.CacheEntry {
	key := chart.Key()
	entry, ok := c.entries[key]
	if !ok {
		loaded, err := c.st.ReadCache(key)
		if err != nil {
			slog.Warn("cache: load entry", "context", chart.String(), "err", err)
			return nil
		}
		if loaded == nil {
			return nil
		}
		c.entries[key] = loaded
		entry = loaded
	}

	if entry.Expired(c.now(), c.ttl) {
		delete(c.entries, key)
		if err := c.st.DeleteCache(key); err != nil {
			slog.Warn("cache: purge expired entry", "context", chart.String(), "err", err)
		}
		return nil
	}
	return entry.Clone()
}

// Write stores a new entry for the context, stamping a fresh version and
// cachedAt. Persistence failures are logged and swallowed.
func (c *cacheStore) Write(chart models.Context, seatMap map[string]*models.SeatRecord) *models.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(chart, seatMap)
}

func (c *cacheStore) writeLocked(chart models.Context, seatMap map[string]*models.SeatRecord) *models.CacheEntry {
	now := c.now()
	entry := &models.CacheEntry{
		SeatMap:  seatMap,
		CachedAt: now,
		Version:  c.nextVersion(now),
	}
	key := chart.Key()
	c.entries[key] = entry

	if err := c.st.WriteCache(key, entry); err != nil {
		slog.Warn("cache: persist entry, continuing in-memory", "context", chart.String(), "err", err)
	}
	return entry.Clone()
}

// Mutate applies fn to the current seat map (if any) under the cache lock.
// fn reports whether it changed anything; when it did, the result is written
// back with a fresh version, otherwise the entry keeps its version and no
// persistence happens. Returns the resulting entry, or nil when no entry
// exists for the context.
func (c *cacheStore) Mutate(chart models.Context, fn func(seatMap map[string]*models.SeatRecord) bool) *models.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.readLocked(chart)
	if entry == nil {
		return nil
	}
	if !fn(entry.SeatMap) {
		return entry
	}
	return c.writeLocked(chart, entry.SeatMap)
}

// Clear removes the entry for the context from memory and storage.
func (c *cacheStore) Clear(chart models.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := chart.Key()
	delete(c.entries, key)
	if err := c.st.DeleteCache(key); err != nil {
		slog.Warn("cache: clear entry", "context", chart.String(), "err", err)
	}
}

// nextVersion returns a token distinct from every previously issued one.
// Timestamp-based with a sequence tiebreaker for same-instant writes.
func (c *cacheStore) nextVersion(now time.Time) string {
	v := fmt.Sprintf("%d", now.UnixNano())
	if v == c.lastVersion {
		c.versionSeq++
		v = fmt.Sprintf("%d.%d", now.UnixNano(), c.versionSeq)
	} else {
		c.lastVersion = v
		c.versionSeq = 0
	}
	return v
}
