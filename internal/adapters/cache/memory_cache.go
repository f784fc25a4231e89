package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mikey/subject-analyzer/internal/core"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a cache entry is not found
	ErrNotFound = errors.New("cache entry not found")
	// ErrExpired is returned when a cache entry has expired
	ErrExpired = errors.New("cache entry expired")
)

type memoryEntry struct {
	result    *core.AnalysisResult
	expiresAt time.Time
}

// counters are shared by every backend
type counters struct {
	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	expired atomic.Int64
}

func (c *counters) snapshot(entries int) core.CacheStats {
	return core.CacheStats{
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Expired: c.expired.Load(),
	}
}

// MemoryCache is an in-memory implementation of the CacheRepository interface
type MemoryCache struct {
	entries     map[string]memoryEntry
	mu          sync.RWMutex
	ttl         time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	now         func() time.Time
	stats       counters
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory cache. A non-positive cleanupFreq disables the background sweep.
func NewMemoryCache(ttl time.Duration, logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]memoryEntry),
		ttl:         ttl,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache
}

// Get retrieves the cached analysis for a subject and industry
func (c *MemoryCache) Get(ctx context.Context, subject, industry string) (*core.AnalysisResult, error) {
	key := NormalizedKey(subject, industry)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.misses.Add(1)
		return nil, ErrNotFound
	}

	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		c.stats.misses.Add(1)
		c.stats.expired.Add(1)
		return nil, ErrExpired
	}

	c.stats.hits.Add(1)
	return entry.result, nil
}

// Set stores an analysis, replacing any previous entry under the same key
func (c *MemoryCache) Set(ctx context.Context, subject, industry string, result *core.AnalysisResult) error {
	if result == nil {
		return errors.New("cannot cache nil analysis result")
	}
	key := NormalizedKey(subject, industry)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	}
	c.stats.sets.Add(1)
	return nil
}

// Clear removes every entry
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]memoryEntry)
	c.logger.Info("Cache cleared")
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}
	c.stats.expired.Add(int64(expiredCount))

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Stats returns a snapshot of the cache counters. Entries counts live entries only.
func (c *MemoryCache) Stats() core.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	live := 0
	for _, entry := range c.entries {
		if now.Before(entry.expiresAt) {
			live++
		}
	}
	return c.stats.snapshot(live)
}

// Healthy reports whether the cache can serve reads. It does not modify any state.
func (c *MemoryCache) Healthy(ctx context.Context) bool {
	select {
	case <-c.stopCh:
		return false
	default:
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries != nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MemoryCache) startCleanupTask() {
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

// Stop stops the background cleanup task. It is safe to call more than once.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
