package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seatq/seatq/internal/models"
)

// resolveConflict handles an operation whose precondition failed: fetch the
// authoritative seat map, overwrite the stale cache entry, then try the
// operation against the server anyway and let it judge. The result feeds the
// same success/retry/fail classification as any other replay.
func (e *Engine) resolveConflict(ctx context.Context, op models.Operation) error {
	slog.Info("resolving conflict", "op", op.ID, "context", op.Context.String())

	resp, err := e.api.GetSeatData(ctx, op.Context)
	if err != nil {
		return fmt.Errorf("conflict refetch: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("conflict refetch rejected: %s", resp.Error)
	}

	e.cache.Write(op.Context, cloneSeatMap(resp.SeatMap))

	return e.replay(ctx, op)
}

func cloneSeatMap(m map[string]*models.SeatRecord) map[string]*models.SeatRecord {
	out := make(map[string]*models.SeatRecord, len(m))
	for id, rec := range m {
		out[id] = rec.Clone()
	}
	return out
}
