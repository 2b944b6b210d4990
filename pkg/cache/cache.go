package cache

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	errs "github.com/shwatanab/steward-go/pkg/errors"
	"github.com/shwatanab/steward-go/pkg/logging"
)

// Cache stores serialized oracle responses keyed by request digest.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// SQLiteCache is a durable Cache backed by a local SQLite file. Expired
// entries are swept by a background goroutine until Close is called.
type SQLiteCache struct {
	db         *sql.DB
	defaultTTL time.Duration
	closeChan  chan struct{}
	cleanupWG  sync.WaitGroup
	closeOnce  sync.Once
}

// NewSQLiteCache opens (or creates) the cache database at path.
func NewSQLiteCache(path string, defaultTTL time.Duration) (*SQLiteCache, error) {
	if path == "" {
		path = "steward_cache.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(err, errs.Unknown, "failed to open sqlite database")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	c := &SQLiteCache{
		db:         db,
		defaultTTL: defaultTTL,
		closeChan:  make(chan struct{}),
	}

	if err := c.initDB(); err != nil {
		db.Close()
		return nil, errs.Wrap(err, errs.Unknown, "failed to initialize cache schema")
	}

	// WAL mode keeps concurrent reads cheap while a sweep is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errs.Wrap(err, errs.Unknown, "failed to enable WAL mode")
	}
	for _, pragma := range []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.GetLogger().Warn(context.Background(), "failed to set pragma %q: %v", pragma, err)
		}
	}

	c.cleanupWG.Add(1)
	go c.cleanupRoutine()

	return c, nil
}

func (c *SQLiteCache) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS oracle_responses (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expires_at ON oracle_responses(expires_at) WHERE expires_at > 0;
	`
	_, err := c.db.Exec(query)
	return err
}

// Get returns the cached value for key, if present and not expired.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `
	SELECT value FROM oracle_responses
	WHERE key = ? AND (expires_at = 0 OR expires_at > ?)
	`

	var value []byte
	err := c.db.QueryRowContext(ctx, query, key, time.Now().UnixNano()).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(err, errs.Unknown, "failed to read cache entry")
	}
	return value, true, nil
}

// Set stores value under key. A zero ttl falls back to the cache default;
// a negative default stores the entry without expiry.
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}

	query := `
	INSERT OR REPLACE INTO oracle_responses (key, value, expires_at, created_at)
	VALUES (?, ?, ?, ?)
	`
	if _, err := c.db.ExecContext(ctx, query, key, value, expiresAt, now.UnixNano()); err != nil {
		return errs.Wrap(err, errs.Unknown, "failed to write cache entry")
	}
	return nil
}

// Close stops the sweeper and closes the database.
func (c *SQLiteCache) Close() error {
	c.closeOnce.Do(func() { close(c.closeChan) })
	c.cleanupWG.Wait()
	return c.db.Close()
}

func (c *SQLiteCache) cleanupRoutine() {
	defer c.cleanupWG.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeChan:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

func (c *SQLiteCache) cleanupExpired() {
	query := `DELETE FROM oracle_responses WHERE expires_at > 0 AND expires_at < ?`
	if _, err := c.db.Exec(query, time.Now().UnixNano()); err != nil {
		logging.GetLogger().Warn(context.Background(), "failed to sweep expired cache entries: %v", err)
	}
}
