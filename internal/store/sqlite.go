package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/seatq/seatq/internal/models"
	_ "modernc.org/sqlite"
)

const dbFile = ".seatq/state.db"

// opLogCap bounds the operation_log table; older rows are pruned on append.
const opLogCap = 1000

// SQLiteStore is the durable Store backed by a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	mu   sync.Mutex // serializes writes; reads go through the pool
}

// Open opens (creating if necessary) the state database under baseDir and
// runs migrations.
func Open(baseDir string) (*SQLiteStore, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// NewWithConn wraps an existing connection (tests use an in-memory database).
func NewWithConn(conn *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS operations (
			id        TEXT PRIMARY KEY,
			position  INTEGER NOT NULL,
			payload   JSON NOT NULL
		);
		CREATE TABLE IF NOT EXISTS cache_entries (
			context_key TEXT PRIMARY KEY,
			payload     JSON NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sync_state (
			id      INTEGER PRIMARY KEY CHECK (id = 1),
			payload JSON NOT NULL
		);
		CREATE TABLE IF NOT EXISTS operation_log (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			logged_at   TEXT NOT NULL,
			op_id       TEXT NOT NULL,
			op_type     TEXT NOT NULL,
			context_key TEXT NOT NULL,
			queue_len   INTEGER NOT NULL
		);
	`)
	return err
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// LoadQueue returns all queued operations in persisted order.
func (s *SQLiteStore) LoadQueue() ([]models.Operation, error) {
	rows, err := s.conn.Query(`SELECT payload FROM operations ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var ops []models.Operation
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		var op models.Operation
		if err := json.Unmarshal([]byte(payload), &op); err != nil {
			return nil, fmt.Errorf("unmarshal operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// SaveQueue atomically replaces the persisted queue with ops, preserving
// slice order.
func (s *SQLiteStore) SaveQueue(ops []models.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM operations`); err != nil {
		return fmt.Errorf("clear operations: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO operations (id, position, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, op := range ops {
		payload, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("marshal operation %s: %w", op.ID, err)
		}
		if _, err := stmt.Exec(op.ID, i, string(payload)); err != nil {
			return fmt.Errorf("insert operation %s: %w", op.ID, err)
		}
	}

	return tx.Commit()
}

// ReadCache returns the persisted cache entry for key, or nil if absent.
func (s *SQLiteStore) ReadCache(key string) (*models.CacheEntry, error) {
	var payload string
	err := s.conn.QueryRow(`SELECT payload FROM cache_entries WHERE context_key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cache %s: %w", key, err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, fmt.Errorf("unmarshal cache %s: %w", key, err)
	}
	return &entry, nil
}

// WriteCache stores entry under key, overwriting any prior entry.
func (s *SQLiteStore) WriteCache(key string, entry *models.CacheEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.conn.Exec(
		`INSERT OR REPLACE INTO cache_entries (context_key, payload) VALUES (?, ?)`,
		key, string(payload),
	)
	if err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

// DeleteCache removes the entry for key. Missing entries are not an error.
func (s *SQLiteStore) DeleteCache(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(`DELETE FROM cache_entries WHERE context_key = ?`, key)
	return err
}

// LoadSyncState returns the persisted sync state, or a zero state if none
// has been saved yet.
func (s *SQLiteStore) LoadSyncState() (*models.SyncState, error) {
	var payload string
	err := s.conn.QueryRow(`SELECT payload FROM sync_state WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return &models.SyncState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sync state: %w", err)
	}

	var state models.SyncState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("unmarshal sync state: %w", err)
	}
	return &state, nil
}

// SaveSyncState replaces the persisted sync state.
func (s *SQLiteStore) SaveSyncState(state *models.SyncState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal sync state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.conn.Exec(
		`INSERT OR REPLACE INTO sync_state (id, payload) VALUES (1, ?)`,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}

// AppendOpLog records an enqueue, pruning the log to its cap.
func (s *SQLiteStore) AppendOpLog(entry OpLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		`INSERT INTO operation_log (logged_at, op_id, op_type, context_key, queue_len)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.LoggedAt.UTC().Format(time.RFC3339Nano),
		entry.OpID, string(entry.OpType), entry.ContextKey, entry.QueueLength,
	)
	if err != nil {
		return fmt.Errorf("append op log: %w", err)
	}

	_, err = s.conn.Exec(
		`DELETE FROM operation_log WHERE seq <= (SELECT MAX(seq) FROM operation_log) - ?`,
		opLogCap,
	)
	if err != nil {
		return fmt.Errorf("prune op log: %w", err)
	}
	return nil
}

// RecentOpLog returns up to limit entries, newest first.
func (s *SQLiteStore) RecentOpLog(limit int) ([]OpLogEntry, error) {
	rows, err := s.conn.Query(
		`SELECT logged_at, op_id, op_type, context_key, queue_len
		 FROM operation_log ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query op log: %w", err)
	}
	defer rows.Close()

	var entries []OpLogEntry
	for rows.Next() {
		var e OpLogEntry
		var ts, opType string
		if err := rows.Scan(&ts, &e.OpID, &opType, &e.ContextKey, &e.QueueLength); err != nil {
			return nil, fmt.Errorf("scan op log: %w", err)
		}
		e.LoggedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse op log timestamp: %w", err)
		}
		e.OpType = models.OpType(opType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
