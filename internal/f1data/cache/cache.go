// Package cache keeps upstream API responses in a SQLite file so repeated requests for
// the same season, race or session do not go back over the network.
//
// The cache is opened once at startup, shared by every request, and closed on shutdown.
package cache

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	// Registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

const createResponsesTable = `CREATE TABLE IF NOT EXISTS responses (
	key TEXT PRIMARY KEY,
	body BLOB NOT NULL,
	fetched_at INTEGER NOT NULL);`

// SQLiteCache is a read-through response store with a freshness window.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open creates (if needed) and opens the cache file at path. Entries older than ttl
// are treated as missing; a zero ttl keeps entries forever.
func Open(path string, ttl time.Duration) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "cache dir")
		}
	}

	// WAL lets concurrent readers proceed while one writer stores a response.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open cache")
	}
	if _, err := db.Exec(createResponsesTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create cache table")
	}

	return &SQLiteCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached body for key when it exists and is still fresh.
func (c *SQLiteCache) Get(key string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt int64
	err := c.db.QueryRow(`SELECT body, fetched_at FROM responses WHERE key = ?`, key).Scan(&body, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores body under key, replacing any previous entry.
func (c *SQLiteCache) Put(key string, body []byte) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO responses (key, body, fetched_at) VALUES (?, ?, ?)`,
		key, body, c.now().Unix())
	return err
}

// Purge deletes entries fetched more than olderThan ago and reports how many went.
func (c *SQLiteCache) Purge(olderThan time.Duration) (int64, error) {
	cutoff := c.now().Add(-olderThan).Unix()
	res, err := c.db.Exec(`DELETE FROM responses WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
