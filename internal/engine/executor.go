package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/seatq/seatq/internal/models"
)

// Errors returned by the optimistic executor.
var (
	ErrNoCachedSeats      = errors.New("no cached seat data for context")
	ErrNoSeatsApplied     = errors.New("no requested seats could be applied")
	ErrNoConsecutiveSeats = errors.New("no consecutive seats available")
	ErrNotEnoughSeats     = errors.New("not enough available seats")
	ErrMissingContext     = errors.New("chart context is incomplete")
)

// Reserve optimistically reserves seatIDs in the chart, marking them in the
// cache and queueing the operation for replay. Without cached data the
// operation is queued unconditionally and applied nowhere locally.
func (e *Engine) Reserve(chart models.Context, seatIDs []string, reservedBy string) (*models.ApplyResult, error) {
	if chart.IsZero() {
		return nil, ErrMissingContext
	}
	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("no seats requested")
	}
	if reservedBy == "" {
		reservedBy = "offline"
	}

	var applied []string
	var warnings []string
	entry := e.cache.Mutate(chart, func(seatMap map[string]*models.SeatRecord) bool {
		for _, id := range seatIDs {
			rec, ok := seatMap[id]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("seat %s not found", id))
				continue
			}
			if rec.DeriveStatus() != models.SeatAvailable {
				warnings = append(warnings, fmt.Sprintf("seat %s is %s", id, rec.DeriveStatus()))
				continue
			}
			rec.ReservedBy = reservedBy
			rec.OfflineReserved = true
			rec.Status = rec.DeriveStatus()
			applied = append(applied, id)
		}
		return len(applied) > 0
	})

	if entry == nil {
		// No local view of the chart; queue blind and let replay decide.
		opID := e.enqueue(models.Operation{
			Type:    models.OpReserveSeats,
			Context: chart,
			SeatIDs: seatIDs,
		}, nil)
		slog.Info("reserve queued without local apply", "op", opID, "context", chart.String())
		return &models.ApplyResult{
			OperationID: opID,
			SeatIDs:     seatIDs,
			Message:     "no cached seat data; queued for replay",
			Offline:     true,
		}, nil
	}

	if len(applied) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoSeatsApplied, warnings)
	}

	opID := e.enqueue(models.Operation{
		Type:    models.OpReserveSeats,
		Context: chart,
		SeatIDs: applied,
	}, entry)
	return &models.ApplyResult{
		OperationID: opID,
		SeatIDs:     applied,
		Message:     fmt.Sprintf("%d seat(s) reserved locally", len(applied)),
		Offline:     true,
		LocalApply:  true,
		Warnings:    warnings,
	}, nil
}

// CheckIn optimistically marks reserved seats as pending check-in.
func (e *Engine) CheckIn(chart models.Context, seatIDs []string) (*models.ApplyResult, error) {
	if chart.IsZero() {
		return nil, ErrMissingContext
	}
	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("no seats requested")
	}

	var applied []string
	var warnings []string
	entry := e.cache.Mutate(chart, func(seatMap map[string]*models.SeatRecord) bool {
		for _, id := range seatIDs {
			rec, ok := seatMap[id]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("seat %s not found", id))
				continue
			}
			if rec.CheckedIn || rec.CheckinPending {
				warnings = append(warnings, fmt.Sprintf("seat %s already checked in", id))
				continue
			}
			if rec.ReservedBy == "" && !rec.WalkIn {
				warnings = append(warnings, fmt.Sprintf("seat %s has no reservation", id))
				continue
			}
			rec.CheckinPending = true
			rec.OfflineCheckin = true
			rec.Status = rec.DeriveStatus()
			applied = append(applied, id)
		}
		return len(applied) > 0
	})

	if entry == nil {
		opID := e.enqueue(models.Operation{
			Type:    models.OpCheckInSeats,
			Context: chart,
			SeatIDs: seatIDs,
		}, nil)
		slog.Info("check-in queued without local apply", "op", opID, "context", chart.String())
		return &models.ApplyResult{
			OperationID: opID,
			SeatIDs:     seatIDs,
			Message:     "no cached seat data; queued for replay",
			Offline:     true,
		}, nil
	}

	if len(applied) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoSeatsApplied, warnings)
	}

	opID := e.enqueue(models.Operation{
		Type:    models.OpCheckInSeats,
		Context: chart,
		SeatIDs: applied,
	}, entry)
	return &models.ApplyResult{
		OperationID: opID,
		SeatIDs:     applied,
		Message:     fmt.Sprintf("%d seat(s) checked in locally", len(applied)),
		Offline:     true,
		LocalApply:  true,
		Warnings:    warnings,
	}, nil
}

// Update optimistically patches arbitrary fields on one seat record.
func (e *Engine) Update(chart models.Context, seatID string, fields map[string]string) (*models.ApplyResult, error) {
	if chart.IsZero() {
		return nil, ErrMissingContext
	}
	if seatID == "" {
		return nil, fmt.Errorf("no seat specified")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	found := false
	entry := e.cache.Mutate(chart, func(seatMap map[string]*models.SeatRecord) bool {
		rec, ok := seatMap[seatID]
		if !ok {
			return false
		}
		found = true
		applySeatPatch(rec, fields)
		rec.OfflineUpdated = true
		return true
	})

	if entry == nil {
		opID := e.enqueue(models.Operation{
			Type:    models.OpUpdateSeatData,
			Context: chart,
			SeatIDs: []string{seatID},
			Fields:  fields,
		}, nil)
		slog.Info("update queued without local apply", "op", opID, "context", chart.String())
		return &models.ApplyResult{
			OperationID: opID,
			SeatIDs:     []string{seatID},
			Message:     "no cached seat data; queued for replay",
			Offline:     true,
		}, nil
	}

	if !found {
		return nil, fmt.Errorf("%w: seat %s not found", ErrNoSeatsApplied, seatID)
	}

	opID := e.enqueue(models.Operation{
		Type:    models.OpUpdateSeatData,
		Context: chart,
		SeatIDs: []string{seatID},
		Fields:  fields,
	}, entry)
	return &models.ApplyResult{
		OperationID: opID,
		SeatIDs:     []string{seatID},
		Message:     fmt.Sprintf("seat %s updated locally", seatID),
		Offline:     true,
		LocalApply:  true,
	}, nil
}

// WalkIn optimistically assigns numSeats available seats to a walk-in party.
// Unlike the other operations this one needs the cache to pick seats, so a
// missing entry is an explicit failure rather than a blind enqueue.
func (e *Engine) WalkIn(chart models.Context, numSeats int, consecutive bool) (*models.ApplyResult, error) {
	if chart.IsZero() {
		return nil, ErrMissingContext
	}
	if numSeats <= 0 {
		return nil, fmt.Errorf("seat count must be positive")
	}

	var chosen []string
	var pickErr error
	entry := e.cache.Mutate(chart, func(seatMap map[string]*models.SeatRecord) bool {
		if consecutive {
			chosen = findConsecutiveRun(seatMap, numSeats)
			if chosen == nil {
				pickErr = fmt.Errorf("%w: need %d", ErrNoConsecutiveSeats, numSeats)
				return false
			}
		} else {
			chosen = pickAvailable(seatMap, numSeats)
			if len(chosen) < numSeats {
				pickErr = fmt.Errorf("%w: need %d, have %d", ErrNotEnoughSeats, numSeats, len(chosen))
				chosen = nil
				return false
			}
		}
		for _, id := range chosen {
			rec := seatMap[id]
			rec.WalkIn = true
			rec.OfflineWalkin = true
			rec.Status = rec.DeriveStatus()
		}
		return true
	})

	if entry == nil {
		return nil, ErrNoCachedSeats
	}
	if pickErr != nil {
		return nil, pickErr
	}

	opType := models.OpAssignWalkIn
	if consecutive {
		opType = models.OpAssignWalkInConsecutive
	}
	opID := e.enqueue(models.Operation{
		Type:     opType,
		Context:  chart,
		SeatIDs:  chosen,
		NumSeats: numSeats,
	}, entry)
	return &models.ApplyResult{
		OperationID: opID,
		SeatIDs:     chosen,
		Message:     fmt.Sprintf("%d walk-in seat(s) assigned locally", len(chosen)),
		Offline:     true,
		LocalApply:  true,
	}, nil
}

// applySeatPatch merges an update's fields into a seat record. Structured
// fields patch the record directly and recompute the derived status; anything
// else lands in Extra.
func applySeatPatch(rec *models.SeatRecord, fields map[string]string) {
	for k, v := range fields {
		switch k {
		case "reserved_by":
			rec.ReservedBy = v
		case "checked_in":
			rec.CheckedIn = v == "true"
		case "checkin_pending":
			rec.CheckinPending = v == "true"
		case "blocked":
			rec.Blocked = v == "true"
		case "walkin":
			rec.WalkIn = v == "true"
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]string, len(fields))
			}
			rec.Extra[k] = v
		}
	}
	rec.Status = rec.DeriveStatus()
}

// sortedSeatIDs returns the map keys in ascending order.
func sortedSeatIDs(seatMap map[string]*models.SeatRecord) []string {
	ids := make([]string, 0, len(seatMap))
	for id := range seatMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// pickAvailable returns up to count available seats in deterministic ID order.
func pickAvailable(seatMap map[string]*models.SeatRecord, count int) []string {
	ids := sortedSeatIDs(seatMap)
	var chosen []string
	for _, id := range ids {
		if seatMap[id].DeriveStatus() != models.SeatAvailable {
			continue
		}
		chosen = append(chosen, id)
		if len(chosen) == count {
			break
		}
	}
	return chosen
}

// enqueue stamps the precondition from the post-apply cache entry (nil when
// the apply was blind) and hands the operation to the queue.
func (e *Engine) enqueue(op models.Operation, entry *models.CacheEntry) string {
	if entry != nil {
		op.Precondition = &models.Precondition{
			Version:   entry.Version,
			Timestamp: entry.CachedAt,
		}
	}
	id := e.queue.Enqueue(op)

	// A queued operation means there is work to replay.
	e.requestSync(time.Duration(0))
	return id
}
