package engine

import (
	"context"
	"fmt"

	"github.com/seatq/seatq/internal/models"
	"github.com/seatq/seatq/internal/remote"
)

// replay executes one queued operation against the remote service. Each
// operation type maps to exactly one remote call; unknown types are rejected
// outright so they cannot loop through the retry path forever.
func (e *Engine) replay(ctx context.Context, op models.Operation) error {
	var (
		resp *remote.OpResponse
		err  error
	)

	switch op.Type {
	case models.OpReserveSeats:
		resp, err = e.api.ReserveSeats(ctx, op.Context, op.SeatIDs)
	case models.OpCheckInSeats:
		resp, err = e.api.CheckInSeats(ctx, op.Context, op.SeatIDs)
	case models.OpUpdateSeatData:
		if len(op.SeatIDs) != 1 {
			return fmt.Errorf("update operation %s has %d seats, want 1", op.ID, len(op.SeatIDs))
		}
		resp, err = e.api.UpdateSeatData(ctx, op.Context, op.SeatIDs[0], op.Fields)
	case models.OpAssignWalkIn:
		resp, err = e.api.AssignWalkIn(ctx, op.Context, op.NumSeats, false)
	case models.OpAssignWalkInConsecutive:
		resp, err = e.api.AssignWalkIn(ctx, op.Context, op.NumSeats, true)
	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}

	if err != nil {
		return fmt.Errorf("replay %s: %w", op.Type, err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return fmt.Errorf("replay %s rejected: %s", op.Type, msg)
	}
	return nil
}
