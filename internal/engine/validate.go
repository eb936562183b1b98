package engine

import (
	"log/slog"

	"github.com/seatq/seatq/internal/models"
)

// validatePrecondition reports whether an operation's cache snapshot still
// holds. The check fails open: operations without a precondition, charts
// without cached data, and validator panics all pass — a dropped reservation
// costs more than a server-side rejection during replay.
func (e *Engine) validatePrecondition(op models.Operation) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("precondition validation panicked, passing operation", "op", op.ID, "panic", r)
			ok = true
		}
	}()

	if op.Precondition == nil {
		return true
	}

	entry := e.cache.Read(op.Context)
	if entry == nil {
		return true
	}
	if entry.Version == op.Precondition.Version {
		return true
	}

	// The cache moved on since the operation was created. Recent operations
	// get the benefit of the doubt.
	age := e.now().Sub(op.Precondition.Timestamp)
	if age <= e.graceWindow {
		slog.Debug("precondition version mismatch within grace window",
			"op", op.ID, "age", age)
		return true
	}

	slog.Warn("precondition conflict",
		"op", op.ID, "context", op.Context.String(),
		"expected", op.Precondition.Version, "current", entry.Version)
	return false
}
