// Package assets handles model binary loading and caching.
package assets

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
)

// Fetcher retrieves a model binary from its origin.
type Fetcher interface {
	FetchModel(ctx context.Context, modelID int) ([]byte, error)
}

// Manager loads model binaries, serving repeats from the cache.
type Manager struct {
	fetcher Fetcher
	cache   *Cache
	log     *zap.Logger
}

// NewManager creates a manager. A nil cache disables caching.
func NewManager(fetcher Fetcher, c *Cache, log *zap.Logger) *Manager {
	if log == nil {
		log = logger.L()
	}
	return &Manager{fetcher: fetcher, cache: c, log: log}
}

// Load returns the binary for modelID.
func (m *Manager) Load(ctx context.Context, modelID int) ([]byte, error) {
	if m.cache != nil {
		if data, ok := m.cache.Get(modelID); ok {
			m.log.Debug("model cache hit", zap.Int("model_id", modelID), zap.Int("bytes", len(data)))
			return data, nil
		}
	}

	start := time.Now()
	data, err := m.fetcher.FetchModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("fetching model %d: %w", modelID, err)
	}
	m.log.Info("model fetched",
		zap.Int("model_id", modelID),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))

	if m.cache != nil {
		m.cache.Put(modelID, data)
	}
	return data, nil
}

// Cache is an in-memory, expiring cache of model binaries keyed by model id.
type Cache struct {
	store *cache.Cache

	mu     sync.Mutex
	hits   int
	misses int
}

// NewCache creates a cache whose entries expire after ttl and are purged
// every cleanup interval. A zero ttl keeps entries forever.
func NewCache(ttl, cleanup time.Duration) *Cache {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Cache{store: cache.New(ttl, cleanup)}
}

func cacheKey(modelID int) string {
	return strconv.Itoa(modelID)
}

// Get retrieves a model binary.
func (c *Cache) Get(modelID int) ([]byte, bool) {
	x, found := c.store.Get(cacheKey(modelID))

	c.mu.Lock()
	defer c.mu.Unlock()
	if !found {
		c.misses++
		return nil, false
	}
	c.hits++
	return x.([]byte), true
}

// Put stores a model binary with the default expiration.
func (c *Cache) Put(modelID int, data []byte) {
	c.store.Set(cacheKey(modelID), data, cache.DefaultExpiration)
}

// Delete evicts one model.
func (c *Cache) Delete(modelID int) {
	c.store.Delete(cacheKey(modelID))
}

// Len returns the number of cached models, including expired ones not yet purged.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Clear empties the cache and resets statistics.
func (c *Cache) Clear() {
	c.store.Flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
