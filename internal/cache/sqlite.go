package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bgsforge/powerstate/internal/galaxy"
)

// SQLiteStore keeps the cache in <dir>/cache.db.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates the cache database in dir.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	dbPath := filepath.Join(dir, "cache.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// WAL keeps readers unblocked while a run writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteStore{db: db, dbPath: dbPath}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *SQLiteStore) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file path.
func (c *SQLiteStore) Path() string { return c.dbPath }

// Get returns the cached payload or ErrNotCached.
func (c *SQLiteStore) Get(systemID int64) (*Entry, error) {
	var payload, fetchedAt string
	err := c.db.QueryRow("SELECT payload, fetched_at FROM factions WHERE system_id = ?", systemID).
		Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("get system %d: %w", systemID, err)
	}

	var data galaxy.SystemFactions
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("decode system %d: %w", systemID, err)
	}
	ts, _ := time.Parse(time.RFC3339, fetchedAt)
	return &Entry{SystemID: systemID, Data: &data, FetchedAt: ts}, nil
}

// Put stores or replaces a payload.
func (c *SQLiteStore) Put(systemID int64, data *galaxy.SystemFactions, fetchedAt time.Time) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode system %d: %w", systemID, err)
	}
	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO factions (system_id, payload, fetched_at)
		VALUES (?, ?, ?)`,
		systemID, string(payload), fetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put system %d: %w", systemID, err)
	}
	return nil
}

// Clear removes every cached payload.
func (c *SQLiteStore) Clear() error {
	if _, err := c.db.Exec("DELETE FROM factions"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Stats returns statistics about the cache contents.
func (c *SQLiteStore) Stats() (*Stats, error) {
	stats := Stats{Backend: BackendSQLite, Path: c.dbPath}

	var oldest, newest sql.NullString
	var size sql.NullInt64
	err := c.db.QueryRow(`
		SELECT COUNT(*), SUM(LENGTH(payload)), MIN(fetched_at), MAX(fetched_at) FROM factions`).
		Scan(&stats.Entries, &size, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("count factions: %w", err)
	}
	stats.Bytes = size.Int64
	if oldest.Valid {
		stats.Oldest, _ = time.Parse(time.RFC3339, oldest.String)
	}
	if newest.Valid {
		stats.Newest, _ = time.Parse(time.RFC3339, newest.String)
	}
	return &stats, nil
}
