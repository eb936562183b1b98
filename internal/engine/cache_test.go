package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/seatq/seatq/internal/models"
	"github.com/seatq/seatq/internal/store"
)

// brokenStore fails every call, simulating an unusable database.
type brokenStore struct{}

var errStoreDown = errors.New("store down")

func (brokenStore) LoadQueue() ([]models.Operation, error)      { return nil, errStoreDown }
func (brokenStore) SaveQueue([]models.Operation) error          { return errStoreDown }
func (brokenStore) ReadCache(string) (*models.CacheEntry, error) { return nil, errStoreDown }
func (brokenStore) WriteCache(string, *models.CacheEntry) error { return errStoreDown }
func (brokenStore) DeleteCache(string) error                    { return errStoreDown }
func (brokenStore) LoadSyncState() (*models.SyncState, error)   { return nil, errStoreDown }
func (brokenStore) SaveSyncState(*models.SyncState) error       { return errStoreDown }
func (brokenStore) AppendOpLog(store.OpLogEntry) error          { return errStoreDown }
func (brokenStore) RecentOpLog(int) ([]store.OpLogEntry, error) { return nil, errStoreDown }
func (brokenStore) Close() error                                { return nil }

func TestCacheReadMissReturnsNil(t *testing.T) {
	c := newCacheStore(setupTestStore(t), 5*time.Minute, newFakeClock().Now)
	if got := c.Read(testChart()); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestCacheWriteStampsVersionAndRead(t *testing.T) {
	c := newCacheStore(setupTestStore(t), 5*time.Minute, newFakeClock().Now)
	chart := testChart()

	e1 := c.Write(chart, seats("A1"))
	if e1.Version == "" || e1.CachedAt.IsZero() {
		t.Fatalf("entry not stamped: %+v", e1)
	}

	e2 := c.Write(chart, seats("A1", "A2"))
	if e2.Version == e1.Version {
		t.Error("rewrite did not change version")
	}

	got := c.Read(chart)
	if got == nil || len(got.SeatMap) != 2 {
		t.Fatalf("read: %+v", got)
	}
}

func TestCacheReadReturnsCopy(t *testing.T) {
	c := newCacheStore(setupTestStore(t), 5*time.Minute, newFakeClock().Now)
	chart := testChart()
	c.Write(chart, seats("A1"))

	got := c.Read(chart)
	got.SeatMap["A1"].ReservedBy = "mallory"

	if c.Read(chart).SeatMap["A1"].ReservedBy != "" {
		t.Error("mutation of returned entry leaked into cache")
	}
}

func TestCacheExpiresByTTL(t *testing.T) {
	clk := newFakeClock()
	st := setupTestStore(t)
	c := newCacheStore(st, 5*time.Minute, clk.Now)
	chart := testChart()

	c.Write(chart, seats("A1"))
	clk.Advance(6 * time.Minute)

	if got := c.Read(chart); got != nil {
		t.Fatalf("expired entry still readable: %+v", got)
	}
	// Purge also removed the persisted copy.
	if persisted, _ := st.ReadCache(chart.Key()); persisted != nil {
		t.Error("expired entry survived in store")
	}
}

func TestCacheMutateBumpsVersion(t *testing.T) {
	c := newCacheStore(setupTestStore(t), 5*time.Minute, newFakeClock().Now)
	chart := testChart()
	before := c.Write(chart, seats("A1"))

	after := c.Mutate(chart, func(seatMap map[string]*models.SeatRecord) bool {
		seatMap["A1"].ReservedBy = "ana"
		return true
	})
	if after == nil {
		t.Fatal("mutate on existing entry returned nil")
	}
	if after.Version == before.Version {
		t.Error("mutate did not change version")
	}
	if c.Read(chart).SeatMap["A1"].ReservedBy != "ana" {
		t.Error("mutation lost")
	}
}

func TestCacheMutateAbortKeepsVersion(t *testing.T) {
	st := setupTestStore(t)
	c := newCacheStore(st, 5*time.Minute, newFakeClock().Now)
	chart := testChart()
	before := c.Write(chart, seats("A1"))

	after := c.Mutate(chart, func(seatMap map[string]*models.SeatRecord) bool {
		return false
	})
	if after == nil {
		t.Fatal("aborted mutate on existing entry returned nil")
	}
	if after.Version != before.Version {
		t.Errorf("aborted mutate changed version: %s -> %s", before.Version, after.Version)
	}
	persisted, err := st.ReadCache(chart.Key())
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if persisted.Version != before.Version {
		t.Error("aborted mutate rewrote the persisted entry")
	}
}

func TestCacheMutateWithoutEntryIsNil(t *testing.T) {
	c := newCacheStore(setupTestStore(t), 5*time.Minute, newFakeClock().Now)
	got := c.Mutate(testChart(), func(seatMap map[string]*models.SeatRecord) bool {
		t.Error("fn called without entry")
		return true
	})
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestCacheLoadsPersistedEntry(t *testing.T) {
	st := setupTestStore(t)
	clk := newFakeClock()
	chart := testChart()

	first := newCacheStore(st, 5*time.Minute, clk.Now)
	first.Write(chart, seats("A1"))

	// A fresh cache over the same store lazily loads the entry.
	second := newCacheStore(st, 5*time.Minute, clk.Now)
	if got := second.Read(chart); got == nil || len(got.SeatMap) != 1 {
		t.Fatalf("read from store: %+v", got)
	}
}

func TestCacheSurvivesStoreFailure(t *testing.T) {
	c := newCacheStore(brokenStore{}, 5*time.Minute, newFakeClock().Now)
	chart := testChart()

	before := c.Write(chart, seats("A1"))
	if before == nil {
		t.Fatal("write with broken store returned nil")
	}
	if got := c.Read(chart); got == nil || len(got.SeatMap) != 1 {
		t.Fatalf("read after broken persist: %+v", got)
	}

	after := c.Mutate(chart, func(seatMap map[string]*models.SeatRecord) bool {
		seatMap["A1"].ReservedBy = "ana"
		return true
	})
	if after == nil || after.Version == before.Version {
		t.Fatalf("mutate with broken store: %+v", after)
	}
	if c.Read(chart).SeatMap["A1"].ReservedBy != "ana" {
		t.Error("mutation lost with broken store")
	}
}

func TestCacheClear(t *testing.T) {
	st := setupTestStore(t)
	c := newCacheStore(st, 5*time.Minute, newFakeClock().Now)
	chart := testChart()
	c.Write(chart, seats("A1"))

	c.Clear(chart)
	if c.Read(chart) != nil {
		t.Error("entry readable after clear")
	}
	if persisted, _ := st.ReadCache(chart.Key()); persisted != nil {
		t.Error("entry survived in store after clear")
	}
}
