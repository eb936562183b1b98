package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seatq/seatq/internal/models"
)

func staleOp(clk *fakeClock) models.Operation {
	return models.Operation{
		ID:      "op_test",
		Type:    models.OpReserveSeats,
		Context: testChart(),
		SeatIDs: []string{"A1"},
		Precondition: &models.Precondition{
			Version:   "ancient",
			Timestamp: clk.Now().Add(-time.Hour),
		},
	}
}

func TestResolveConflictRefetchesAndReplays(t *testing.T) {
	clk := newFakeClock()
	api := &fakeAPI{seatData: seats("A1", "A2", "A3")}
	eng := newTestEngine(t, api, clk)
	chart := testChart()
	eng.cache.Write(chart, seats("A1"))

	if err := eng.resolveConflict(context.Background(), staleOp(clk)); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if api.callCount("fetch") != 1 || api.callCount("reserve") != 1 {
		t.Errorf("calls: %v", api.calls)
	}

	entry := eng.CachedSeats(chart)
	if entry == nil || len(entry.SeatMap) != 3 {
		t.Fatalf("cache not overwritten with server map: %+v", entry)
	}
}

func TestResolveConflictRefetchFailure(t *testing.T) {
	clk := newFakeClock()
	api := &fakeAPI{fetchErr: errors.New("gateway timeout")}
	eng := newTestEngine(t, api, clk)
	chart := testChart()
	eng.cache.Write(chart, seats("A1"))
	before := eng.CachedSeats(chart).Version

	if err := eng.resolveConflict(context.Background(), staleOp(clk)); err == nil {
		t.Fatal("expected refetch error")
	}
	if api.callCount("reserve") != 0 {
		t.Error("replay attempted without authoritative data")
	}
	if got := eng.CachedSeats(chart).Version; got != before {
		t.Error("failed refetch rewrote the cache")
	}
}

func TestResolveConflictReplayFailureKeepsRefetchedCache(t *testing.T) {
	clk := newFakeClock()
	api := &fakeAPI{seatData: seats("A1", "A2")}
	api.setOpErr(errors.New("seat taken"))
	eng := newTestEngine(t, api, clk)
	chart := testChart()
	eng.cache.Write(chart, seats("A1"))

	err := eng.resolveConflict(context.Background(), staleOp(clk))
	if err == nil {
		t.Fatal("expected replay error")
	}

	// The refetch already happened; its result stays even though the
	// re-execution failed.
	entry := eng.CachedSeats(chart)
	if entry == nil || len(entry.SeatMap) != 2 {
		t.Errorf("refetched map lost after replay failure: %+v", entry)
	}
}
