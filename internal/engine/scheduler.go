package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seatq/seatq/internal/models"
)

var (
	// ErrSyncInProgress is returned when a sync pass is already running.
	// Passes are single-flight; a concurrent trigger is a no-op.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrOffline is returned when a sync is requested but the service is
	// unreachable.
	ErrOffline = errors.New("service unreachable")
)

// PassResult summarizes one sync pass.
type PassResult struct {
	Succeeded int `json:"succeeded"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Conflicts int `json:"conflicts"`
	Remaining int `json:"remaining"`
}

// Online reports the last observed connectivity state.
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online
}

// SetOnline records a connectivity transition. Coming back online triggers a
// sync pass if anything is queued.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	changed := e.online != online
	e.online = online
	now := e.now()
	if changed {
		if online {
			e.state.LastOnlineTime = now
		} else {
			e.state.LastOfflineTime = now
		}
		e.persistStateLocked()
	}
	e.mu.Unlock()

	if !changed {
		return
	}

	slog.Info("connectivity changed", "online", online)
	e.bus.publish(Event{Kind: EventConnectivity, Time: now, Online: online})

	if online && e.queue.Len() > 0 {
		e.requestSync(0)
	}
}

// ProbeOnce checks service reachability and updates the connectivity state.
func (e *Engine) ProbeOnce(ctx context.Context) bool {
	_, err := e.api.HealthCheck(ctx)
	online := err == nil
	if err != nil {
		slog.Debug("health probe failed", "err", err)
	}
	e.SetOnline(online)
	return online
}

// requestSync asks the background loop for a sync pass after delay. Requests
// coalesce; without a running loop they are dropped (one-shot callers invoke
// SyncNow directly).
func (e *Engine) requestSync(delay time.Duration) {
	send := func() {
		select {
		case e.syncReq <- struct{}{}:
		default:
		}
	}
	if delay <= 0 {
		send()
		return
	}
	time.AfterFunc(delay, send)
}

// SyncNow runs one sync pass. It probes first when the engine believes it is
// offline, and refuses to overlap a running pass.
func (e *Engine) SyncNow(ctx context.Context) (*PassResult, error) {
	if !e.Online() && !e.ProbeOnce(ctx) {
		return nil, ErrOffline
	}
	return e.performSync(ctx)
}

// ForceSync clears an escalation hold and runs a pass regardless of it.
func (e *Engine) ForceSync(ctx context.Context) (*PassResult, error) {
	e.mu.Lock()
	e.escalated = false
	e.badPasses = 0
	e.mu.Unlock()
	return e.SyncNow(ctx)
}

// performSync is the single-flight replay pass: drain the queue, replay each
// operation in priority order under one wall-clock budget, classify outcomes
// and write the unresolved remainder back.
func (e *Engine) performSync(ctx context.Context) (*PassResult, error) {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	e.syncing = true
	e.state.LastSyncAttempt = e.now()
	e.persistStateLocked()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	passCtx, cancel := context.WithTimeout(ctx, e.syncTimeout)
	defer cancel()

	started := e.now()
	e.bus.publish(Event{Kind: EventSyncStarted, Time: started, Online: true})
	slog.Info("sync pass started", "queued", e.queue.Len())

	ops := e.queue.DequeueAll()
	var res PassResult
	var remaining []models.Operation

	for i, op := range ops {
		if passCtx.Err() != nil {
			// Out of budget: everything not yet attempted goes back
			// untouched, retry counts unchanged.
			remaining = append(remaining, ops[i:]...)
			slog.Warn("sync pass timed out", "attempted", i, "deferred", len(ops)-i)
			break
		}

		var err error
		if e.validatePrecondition(op) {
			err = e.replay(passCtx, op)
		} else {
			res.Conflicts++
			e.bus.publish(Event{Kind: EventConflict, Time: e.now(), OpID: op.ID,
				Message: "precondition conflict, refetching"})
			err = e.resolveConflict(passCtx, op)
		}

		if err == nil {
			res.Succeeded++
			e.bus.publish(Event{Kind: EventOpSynced, Time: e.now(), OpID: op.ID})
			continue
		}

		e.mu.Lock()
		e.state.RecordError(e.now(), err.Error())
		e.mu.Unlock()

		op.RetryCount++
		if op.RetryCount < e.maxRetryCount {
			op.Status = models.OpRetry
			remaining = append(remaining, op)
			res.Retried++
			slog.Warn("operation will retry", "op", op.ID, "attempt", op.RetryCount, "err", err)
		} else {
			res.Failed++
			slog.Error("operation dropped after retries", "op", op.ID, "err", err)
			e.bus.publish(Event{Kind: EventOpFailed, Time: e.now(), OpID: op.ID,
				Message: err.Error()})
		}
	}

	e.queue.Replace(remaining)
	res.Remaining = len(remaining)

	e.finishPass(&res)
	e.refreshDefaultChart(ctx)

	e.bus.publish(Event{
		Kind: EventSyncFinished, Time: e.now(), Online: e.Online(),
		Succeeded: res.Succeeded, Retried: res.Retried,
		Failed: res.Failed, Conflicts: res.Conflicts,
	})
	slog.Info("sync pass finished",
		"succeeded", res.Succeeded, "retried", res.Retried,
		"failed", res.Failed, "conflicts", res.Conflicts,
		"remaining", res.Remaining, "took", e.now().Sub(started))

	return &res, nil
}

// finishPass updates sync bookkeeping and the escalation counter.
func (e *Engine) finishPass(res *PassResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	// Resolved conflicts are not errors; a conflict whose resolution failed
	// already counts under Retried or Failed.
	errs := res.Retried + res.Failed

	if errs == 0 && res.Remaining == 0 {
		e.state.LastSuccessfulSync = now
		e.state.RetryCount = 0
		e.badPasses = 0
		e.persistStateLocked()
		return
	}

	if errs > e.errorThreshold {
		e.badPasses++
	} else {
		e.badPasses = 0
	}

	if e.badPasses >= e.escalateAfter && !e.escalated {
		e.escalated = true
		slog.Error("sync escalated after repeated failing passes",
			"passes", e.badPasses, "errors", errs)
		e.bus.publish(Event{Kind: EventSyncEscalated, Time: now,
			Message: "automatic sync suspended after repeated failures"})
	}

	// Pass-level retry with delay while work remains and we are not held.
	if res.Remaining > 0 && !e.escalated {
		e.state.RetryCount++
		if e.state.RetryCount <= e.maxRetryCount {
			e.requestSync(e.retryDelay)
		}
	}
	e.persistStateLocked()
}

// refreshDefaultChart refetches the configured chart context after a pass so
// local state converges on the server's view.
func (e *Engine) refreshDefaultChart(ctx context.Context) {
	if e.defaultChart.IsZero() || !e.Online() {
		return
	}
	if err := e.RefreshCache(ctx, e.defaultChart); err != nil {
		slog.Warn("post-sync cache refresh failed",
			"context", e.defaultChart.String(), "err", err)
	}
}

// Run drives background operation: periodic connectivity probes, periodic
// sync passes, and coalesced on-demand requests. Blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	probe := time.NewTicker(e.probeInterval)
	defer probe.Stop()
	background := time.NewTicker(e.syncInterval)
	defer background.Stop()

	e.ProbeOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-probe.C:
			e.ProbeOnce(ctx)
		case <-background.C:
			e.maybeSync(ctx)
		case <-e.syncReq:
			e.maybeSync(ctx)
		}
	}
}

func (e *Engine) maybeSync(ctx context.Context) {
	e.mu.Lock()
	held := e.escalated
	e.mu.Unlock()

	if held || !e.Online() || e.queue.Len() == 0 {
		return
	}
	if _, err := e.performSync(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
		slog.Error("background sync pass", "err", err)
	}
}
