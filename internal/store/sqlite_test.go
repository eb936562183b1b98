package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/seatq/seatq/internal/models"
	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s, err := NewWithConn(conn)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestQueueRoundTrip(t *testing.T) {
	s := setupStore(t)

	ops := []models.Operation{
		{ID: "op_1", Type: models.OpReserveSeats, SeatIDs: []string{"A1", "A2"}, Priority: 1},
		{ID: "op_2", Type: models.OpAssignWalkIn, NumSeats: 2, Priority: 4},
	}
	if err := s.SaveQueue(ops); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadQueue()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d ops, want 2", len(got))
	}
	if got[0].ID != "op_1" || got[1].ID != "op_2" {
		t.Errorf("order not preserved: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].SeatIDs[1] != "A2" {
		t.Errorf("seat ids lost: %v", got[0].SeatIDs)
	}

	// Save replaces, not appends.
	if err := s.SaveQueue(ops[:1]); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ = s.LoadQueue()
	if len(got) != 1 {
		t.Fatalf("after resave: %d ops, want 1", len(got))
	}
}

func TestCacheRoundTrip(t *testing.T) {
	s := setupStore(t)

	entry := &models.CacheEntry{
		Version:  "12345",
		CachedAt: time.Now().UTC().Truncate(time.Second),
		SeatMap: map[string]*models.SeatRecord{
			"A1": {ID: "A1", ReservedBy: "ana", OfflineReserved: true},
		},
	}
	if err := s.WriteCache("g|d|t", entry); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.ReadCache("g|d|t")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got == nil || got.Version != "12345" {
		t.Fatalf("got %+v", got)
	}
	if !got.SeatMap["A1"].OfflineReserved {
		t.Error("offline flag lost")
	}

	if got, _ := s.ReadCache("missing"); got != nil {
		t.Error("missing key should read nil")
	}

	if err := s.DeleteCache("g|d|t"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.ReadCache("g|d|t"); got != nil {
		t.Error("deleted entry still readable")
	}
}

func TestSyncStateRoundTrip(t *testing.T) {
	s := setupStore(t)

	state, err := s.LoadSyncState()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if state == nil || state.RetryCount != 0 {
		t.Fatalf("empty state: %+v", state)
	}

	state.RetryCount = 2
	state.RecordError(time.Now(), "connection refused")
	if err := s.SaveSyncState(state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadSyncState()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.RetryCount != 2 || len(got.SyncErrors) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestOpLogPrunes(t *testing.T) {
	s := setupStore(t)

	for i := 0; i < opLogCap+50; i++ {
		err := s.AppendOpLog(OpLogEntry{
			LoggedAt:    time.Now(),
			OpID:        "op",
			OpType:      models.OpReserveSeats,
			ContextKey:  "g|d|t",
			QueueLength: i,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := s.RecentOpLog(opLogCap * 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != opLogCap {
		t.Errorf("log size: got %d, want %d", len(entries), opLogCap)
	}
	// Newest first.
	if entries[0].QueueLength != opLogCap+49 {
		t.Errorf("newest entry queue_len: got %d", entries[0].QueueLength)
	}
}
