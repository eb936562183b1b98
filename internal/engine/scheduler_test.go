package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seatq/seatq/internal/models"
)

func TestSyncPassDrainsQueue(t *testing.T) {
	api := &fakeAPI{}
	eng := newTestEngine(t, api, newFakeClock())
	chart := testChart()
	eng.cache.Write(chart, seats("A1", "A2"))
	eng.Reserve(chart, []string{"A1"}, "ana")
	eng.CheckIn(chart, []string{"A1"})

	res, err := eng.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Succeeded != 2 || res.Failed != 0 || res.Retried != 0 {
		t.Errorf("result: %+v", res)
	}
	if eng.QueueLen() != 0 {
		t.Errorf("queue not drained: %d", eng.QueueLen())
	}
	if api.callCount("reserve") != 1 || api.callCount("checkin") != 1 {
		t.Errorf("calls: %v", api.calls)
	}
	if eng.Status().LastSuccessfulSync.IsZero() {
		t.Error("successful sync not recorded")
	}
}

func TestSyncRetriesThenDrops(t *testing.T) {
	api := &fakeAPI{}
	api.setOpErr(errors.New("connection reset"))
	eng := newTestEngine(t, api, newFakeClock())
	chart := testChart()
	eng.cache.Write(chart, seats("A1"))
	eng.Reserve(chart, []string{"A1"}, "ana")

	for pass := 1; pass <= 2; pass++ {
		res, err := eng.SyncNow(context.Background())
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if res.Retried != 1 || res.Remaining != 1 {
			t.Fatalf("pass %d result: %+v", pass, res)
		}
		if got := eng.QueueSnapshot()[0].RetryCount; got != pass {
			t.Fatalf("pass %d retry count: %d", pass, got)
		}
	}

	// Third failure reaches the ceiling; the operation is dropped.
	res, err := eng.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("final pass: %v", err)
	}
	if res.Failed != 1 || res.Remaining != 0 {
		t.Errorf("final result: %+v", res)
	}
	if eng.QueueLen() != 0 {
		t.Error("dropped operation still queued")
	}
}

func TestSyncRecoversAfterTransientFailure(t *testing.T) {
	api := &fakeAPI{}
	api.setOpErr(errors.New("timeout"))
	eng := newTestEngine(t, api, newFakeClock())
	chart := testChart()
	eng.cache.Write(chart, seats("A1"))
	eng.Reserve(chart, []string{"A1"}, "")

	if res, _ := eng.SyncNow(context.Background()); res.Retried != 1 {
		t.Fatalf("first pass: %+v", res)
	}

	api.setOpErr(nil)
	res, err := eng.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if res.Succeeded != 1 || res.Remaining != 0 {
		t.Errorf("second pass: %+v", res)
	}
}

func TestSyncResolvesConflicts(t *testing.T) {
	clk := newFakeClock()
	api := &fakeAPI{seatData: seats("A1", "A2")}
	eng := newTestEngine(t, api, clk)
	chart := testChart()

	eng.queue.Enqueue(models.Operation{
		Type:    models.OpReserveSeats,
		Context: chart,
		SeatIDs: []string{"A1"},
		Precondition: &models.Precondition{
			Version:   "ancient",
			Timestamp: clk.Now().Add(-time.Hour),
		},
	})
	eng.cache.Write(chart, seats("A1"))

	res, err := eng.SyncNow(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Conflicts != 1 || res.Succeeded != 1 {
		t.Errorf("result: %+v", res)
	}
	if api.callCount("fetch") < 1 {
		t.Error("conflict did not refetch seat data")
	}
	// Cache now reflects the authoritative map.
	entry := eng.CachedSeats(chart)
	if entry == nil || len(entry.SeatMap) != 2 {
		t.Errorf("cache after resolution: %+v", entry)
	}
}

func TestResolvedConflictsDoNotEscalate(t *testing.T) {
	clk := newFakeClock()
	api := &fakeAPI{seatData: seats("A1")}
	eng := newTestEngine(t, api, clk)
	chart := testChart()

	// Three consecutive passes that each hit, and resolve, one stale
	// precondition. Every operation syncs; these are good passes.
	for pass := 0; pass < 3; pass++ {
		eng.cache.Write(chart, seats("A1"))
		eng.queue.Enqueue(models.Operation{
			Type:    models.OpReserveSeats,
			Context: chart,
			SeatIDs: []string{"A1"},
			Precondition: &models.Precondition{
				Version:   "ancient",
				Timestamp: clk.Now().Add(-time.Hour),
			},
		})

		res, err := eng.SyncNow(context.Background())
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if res.Conflicts != 1 || res.Succeeded != 1 || res.Remaining != 0 {
			t.Fatalf("pass %d result: %+v", pass, res)
		}
	}

	eng.mu.Lock()
	escalated := eng.escalated
	badPasses := eng.badPasses
	eng.mu.Unlock()
	if escalated || badPasses != 0 {
		t.Errorf("resolved conflicts counted as bad passes: escalated=%v badPasses=%d",
			escalated, badPasses)
	}
	if eng.Status().LastSuccessfulSync.IsZero() {
		t.Error("fully drained pass not recorded as successful")
	}
}

func TestSyncSingleFlight(t *testing.T) {
	eng := newTestEngine(t, &fakeAPI{}, newFakeClock())
	eng.mu.Lock()
	eng.syncing = true
	eng.mu.Unlock()

	_, err := eng.performSync(context.Background())
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("err: %v", err)
	}
}

func TestSyncOffline(t *testing.T) {
	api := &fakeAPI{healthErr: errors.New("no route to host")}
	eng := newTestEngine(t, api, newFakeClock())
	eng.SetOnline(false)

	_, err := eng.SyncNow(context.Background())
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("err: %v", err)
	}
}

func TestSyncTimeoutDefersUnattempted(t *testing.T) {
	eng := newTestEngine(t, &fakeAPI{}, newFakeClock())
	chart := testChart()
	eng.cache.Write(chart, seats("A1", "A2"))
	eng.Reserve(chart, []string{"A1"}, "")
	eng.Reserve(chart, []string{"A2"}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := eng.performSync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Succeeded != 0 || res.Remaining != 2 {
		t.Errorf("result: %+v", res)
	}
	// Deferred operations are not charged a retry.
	for _, op := range eng.QueueSnapshot() {
		if op.RetryCount != 0 {
			t.Errorf("op %s charged a retry on timeout", op.ID)
		}
	}

	// With work still queued the pass is not a success, and a pass-level
	// retry is scheduled.
	if !eng.Status().LastSuccessfulSync.IsZero() {
		t.Error("deferred pass recorded as successful")
	}
	eng.mu.Lock()
	retries := eng.state.RetryCount
	eng.mu.Unlock()
	if retries != 1 {
		t.Errorf("pass retry count: got %d, want 1", retries)
	}
}

func TestEscalationAfterRepeatedBadPasses(t *testing.T) {
	api := &fakeAPI{}
	api.setOpErr(errors.New("rejected"))
	eng := newTestEngine(t, api, newFakeClock())
	chart := testChart()
	eng.cache.Write(chart, seats("A1"))

	events, cancel := eng.Subscribe()
	defer cancel()

	// Keep feeding a failing operation so three consecutive passes go bad.
	for pass := 0; pass < 3; pass++ {
		if eng.QueueLen() == 0 {
			eng.Reserve(chart, []string{"A1"}, "")
		}
		eng.SyncNow(context.Background())
	}

	eng.mu.Lock()
	escalated := eng.escalated
	eng.mu.Unlock()
	if !escalated {
		t.Fatal("engine not escalated after three bad passes")
	}

	found := false
	for len(events) > 0 {
		if ev := <-events; ev.Kind == EventSyncEscalated {
			found = true
		}
	}
	if !found {
		t.Error("no escalation event published")
	}

	// ForceSync clears the hold.
	api.setOpErr(nil)
	if _, err := eng.ForceSync(context.Background()); err != nil {
		t.Fatalf("force sync: %v", err)
	}
	eng.mu.Lock()
	escalated = eng.escalated
	eng.mu.Unlock()
	if escalated {
		t.Error("escalation hold survived ForceSync")
	}
}

func TestConnectivityTransitionsRecorded(t *testing.T) {
	eng := newTestEngine(t, &fakeAPI{}, newFakeClock())

	eng.SetOnline(false)
	eng.mu.Lock()
	offlineAt := eng.state.LastOfflineTime
	eng.mu.Unlock()
	if offlineAt.IsZero() {
		t.Fatal("offline transition not recorded")
	}

	eng.SetOnline(true)
	eng.mu.Lock()
	onlineAt := eng.state.LastOnlineTime
	eng.mu.Unlock()
	if !onlineAt.After(offlineAt) {
		t.Error("online transition not recorded after offline")
	}
}

func TestProbeOnceSetsConnectivity(t *testing.T) {
	api := &fakeAPI{}
	eng := newTestEngine(t, api, newFakeClock())
	eng.SetOnline(false)

	if !eng.ProbeOnce(context.Background()) {
		t.Fatal("probe against healthy fake failed")
	}
	if !eng.Online() {
		t.Error("engine still offline after successful probe")
	}

	api.healthErr = errors.New("gone")
	if eng.ProbeOnce(context.Background()) {
		t.Fatal("probe against failing fake succeeded")
	}
	if eng.Online() {
		t.Error("engine still online after failed probe")
	}
}
