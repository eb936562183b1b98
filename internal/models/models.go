package models

import (
	"fmt"
	"time"
)

// SeatStatus represents a seat's known state.
type SeatStatus string

const (
	SeatAvailable   SeatStatus = "available"
	SeatReserved    SeatStatus = "reserved"
	SeatCheckedIn   SeatStatus = "checked-in"
	SeatWalkIn      SeatStatus = "walk-in"
	SeatUnavailable SeatStatus = "unavailable"
)

// OpType identifies a queued operation kind. The set is closed: the replay
// executor matches exhaustively over these values.
type OpType string

const (
	OpReserveSeats            OpType = "reserve_seats"
	OpCheckInSeats            OpType = "checkin_seats"
	OpUpdateSeatData          OpType = "update_seat_data"
	OpAssignWalkIn            OpType = "assign_walkin"
	OpAssignWalkInConsecutive OpType = "assign_walkin_consecutive"
)

// Priority returns the replay priority for an operation type. Lower is more
// urgent. Unknown types sort last.
func (t OpType) Priority() int {
	switch t {
	case OpReserveSeats:
		return 1
	case OpCheckInSeats:
		return 2
	case OpUpdateSeatData:
		return 3
	case OpAssignWalkIn, OpAssignWalkInConsecutive:
		return 4
	default:
		return 5
	}
}

// Valid reports whether t is one of the five known operation types.
func (t OpType) Valid() bool {
	switch t {
	case OpReserveSeats, OpCheckInSeats, OpUpdateSeatData, OpAssignWalkIn, OpAssignWalkInConsecutive:
		return true
	}
	return false
}

// Context identifies one seating chart instance.
type Context struct {
	Group    string `json:"group"`
	Day      string `json:"day"`
	Timeslot string `json:"timeslot"`
}

// Key returns the storage key for the context ("group|day|timeslot").
func (c Context) Key() string {
	return fmt.Sprintf("%s|%s|%s", c.Group, c.Day, c.Timeslot)
}

// IsZero reports whether any component of the context is missing.
func (c Context) IsZero() bool {
	return c.Group == "" || c.Day == "" || c.Timeslot == ""
}

func (c Context) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Group, c.Day, c.Timeslot)
}

// SeatRecord is a seat's locally known state. The Offline* flags mark records
// mutated optimistically and not yet confirmed by the remote service; a cache
// refresh from the server replaces the whole entry and clears them.
type SeatRecord struct {
	ID             string            `json:"id"`
	Status         SeatStatus        `json:"status"`
	ReservedBy     string            `json:"reserved_by,omitempty"`
	CheckedIn      bool              `json:"checked_in,omitempty"`
	CheckinPending bool              `json:"checkin_pending,omitempty"`
	Blocked        bool              `json:"blocked,omitempty"`
	WalkIn         bool              `json:"walkin,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`

	OfflineReserved bool `json:"offline_reserved,omitempty"`
	OfflineCheckin  bool `json:"offline_checkin,omitempty"`
	OfflineWalkin   bool `json:"offline_walkin,omitempty"`
	OfflineUpdated  bool `json:"offline_updated,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *SeatRecord) Clone() *SeatRecord {
	c := *r
	if r.Extra != nil {
		c.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// DeriveStatus recomputes Status from the record's fields using a fixed
// precedence: checked-in (confirmed or pending) > walk-in > reserved >
// unavailable (blocked, no reservation) > available. A pending check-in
// surfaces as checked-in so the guest is seated immediately; the offline flag
// marks it provisional until the server confirms.
func (r *SeatRecord) DeriveStatus() SeatStatus {
	switch {
	case r.CheckedIn, r.CheckinPending:
		return SeatCheckedIn
	case r.WalkIn:
		return SeatWalkIn
	case r.ReservedBy != "":
		return SeatReserved
	case r.Blocked:
		return SeatUnavailable
	default:
		return SeatAvailable
	}
}

// Precondition is the cache snapshot an operation assumed was current when it
// was created.
type Precondition struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// OpStatus tracks an operation's replay state while it remains queued.
// Synced and discarded operations are removed from the queue, not marked.
type OpStatus string

const (
	OpPending OpStatus = "pending"
	OpRetry   OpStatus = "retry"
	OpFailed  OpStatus = "failed"
)

// Operation is a queued intent to mutate remote seat state.
type Operation struct {
	ID           string            `json:"id"`
	Type         OpType            `json:"type"`
	Context      Context           `json:"context"`
	SeatIDs      []string          `json:"seat_ids,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"` // UpdateSeatData patch
	NumSeats     int               `json:"num_seats,omitempty"`
	Priority     int               `json:"priority"`
	EnqueuedAt   time.Time         `json:"enqueued_at"`
	RetryCount   int               `json:"retry_count"`
	Status       OpStatus          `json:"status"`
	Precondition *Precondition     `json:"precondition,omitempty"`
}

// CacheEntry is a per-context snapshot of seat state.
type CacheEntry struct {
	SeatMap  map[string]*SeatRecord `json:"seat_map"`
	CachedAt time.Time              `json:"cached_at"`
	Version  string                 `json:"version"`
}

// Expired reports whether the entry is older than ttl at the given instant.
func (e *CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CachedAt) > ttl
}

// Clone returns a deep copy of the entry.
func (e *CacheEntry) Clone() *CacheEntry {
	c := &CacheEntry{CachedAt: e.CachedAt, Version: e.Version}
	if e.SeatMap != nil {
		c.SeatMap = make(map[string]*SeatRecord, len(e.SeatMap))
		for id, rec := range e.SeatMap {
			c.SeatMap[id] = rec.Clone()
		}
	}
	return c
}

// SyncError records one failed sync pass.
type SyncError struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
}

// MaxSyncErrors bounds the persisted error list; oldest entries are dropped.
const MaxSyncErrors = 50

// SyncState is the process-wide sync bookkeeping, persisted across restarts.
// It is owned and mutated exclusively by the sync scheduler.
type SyncState struct {
	RetryCount         int         `json:"retry_count"`
	LastSyncAttempt    time.Time   `json:"last_sync_attempt"`
	LastSuccessfulSync time.Time   `json:"last_successful_sync"`
	LastOnlineTime     time.Time   `json:"last_online_time"`
	LastOfflineTime    time.Time   `json:"last_offline_time"`
	SyncErrors         []SyncError `json:"sync_errors"`
}

// RecordError appends an error, trimming the list to MaxSyncErrors.
func (s *SyncState) RecordError(now time.Time, msg string) {
	s.SyncErrors = append(s.SyncErrors, SyncError{Timestamp: now, Error: msg})
	if len(s.SyncErrors) > MaxSyncErrors {
		s.SyncErrors = s.SyncErrors[len(s.SyncErrors)-MaxSyncErrors:]
	}
}

// ApplyResult describes what an optimistic local apply did. Provisional
// results always carry Offline=true; Warnings list per-seat problems that did
// not abort the batch.
type ApplyResult struct {
	OperationID string   `json:"operation_id"`
	SeatIDs     []string `json:"seat_ids,omitempty"`
	Message     string   `json:"message,omitempty"`
	Offline     bool     `json:"offline"`
	LocalApply  bool     `json:"local_apply"`
	Warnings    []string `json:"warnings,omitempty"`
}

// EngineStatus is the snapshot returned by Engine.Status.
type EngineStatus struct {
	Online             bool        `json:"online"`
	SyncInProgress     bool        `json:"sync_in_progress"`
	QueueLength        int         `json:"queue_length"`
	LastSyncAttempt    time.Time   `json:"last_sync_attempt"`
	LastSuccessfulSync time.Time   `json:"last_successful_sync"`
	SyncErrors         []SyncError `json:"sync_errors,omitempty"`
}
