package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
)

// memoryDSN names a private in-process database that lives as long as the cache holds a connection
func memoryDSN() string {
	return "file:subject_cache_" + uuid.NewString() + "?mode=memory&cache=shared"
}

// SQLiteCache is a SQLite implementation of the CacheRepository interface
type SQLiteCache struct {
	db          *sql.DB
	ttl         time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	now         func() time.Time
	stats       counters
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dsn string, ttl time.Duration, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	if dsn == "" {
		dsn = memoryDSN()
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// one connection keeps the in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS subject_cache (
			cache_key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_subject_cache_expires_at ON subject_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		ttl:         ttl,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves the cached analysis for a subject and industry
func (c *SQLiteCache) Get(ctx context.Context, subject, industry string) (*core.AnalysisResult, error) {
	key := NormalizedKey(subject, industry)

	var payload string
	var expiresAt int64
	err := c.db.QueryRowContext(ctx, `
		SELECT payload, expires_at
		FROM subject_cache
		WHERE cache_key = ?
	`, key).Scan(&payload, &expiresAt)

	if err != nil {
		c.stats.misses.Add(1)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	if c.now().UnixNano() >= expiresAt {
		c.stats.misses.Add(1)
		if _, err := c.db.ExecContext(ctx, `DELETE FROM subject_cache WHERE cache_key = ? AND expires_at = ?`, key, expiresAt); err != nil {
			c.logger.Warn("Failed to delete expired cache entry", zap.Error(err))
		} else {
			c.stats.expired.Add(1)
		}
		return nil, ErrExpired
	}

	var result core.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		c.stats.misses.Add(1)
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}

	c.stats.hits.Add(1)
	return &result, nil
}

// Set stores an analysis, replacing any previous entry under the same key
func (c *SQLiteCache) Set(ctx context.Context, subject, industry string, result *core.AnalysisResult) error {
	if result == nil {
		return errors.New("cannot cache nil analysis result")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO subject_cache (cache_key, payload, expires_at)
		VALUES (?, ?, ?)
	`, NormalizedKey(subject, industry), string(payload), c.now().Add(c.ttl).UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	c.stats.sets.Add(1)
	return nil
}

// Clear removes every entry
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM subject_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	c.logger.Info("Cache cleared")
	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM subject_cache
		WHERE expires_at <= ?
	`, c.now().UnixNano())

	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.stats.expired.Add(rowsAffected)
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// Stats returns a snapshot of the cache counters. Entries counts live entries only.
func (c *SQLiteCache) Stats() core.CacheStats {
	var live int
	err := c.db.QueryRow(`
		SELECT COUNT(*) FROM subject_cache WHERE expires_at > ?
	`, c.now().UnixNano()).Scan(&live)
	if err != nil {
		c.logger.Warn("Failed to count cache entries", zap.Error(err))
	}
	return c.stats.snapshot(live)
}

// Healthy pings the database. It does not modify any state.
func (c *SQLiteCache) Healthy(ctx context.Context) bool {
	if err := c.db.PingContext(ctx); err != nil {
		c.logger.Warn("Cache health check failed", zap.Error(err))
		return false
	}
	return true
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
