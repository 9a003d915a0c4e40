package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tristendillon/doppelganger/core/logger"
	"github.com/tristendillon/doppelganger/core/models"
)

// OutputCache maps a source file's content hash to the stub generated from
// it, so repeated runs in watch mode skip parsing unchanged files. Outputs
// are still written on every run.
type OutputCache struct {
	entries map[string]*models.CacheEntry
	config  *CacheConfig
	metrics *CacheMetrics
	mutex   sync.RWMutex
	log     *zap.SugaredLogger
}

func NewOutputCache(config *CacheConfig, log *zap.SugaredLogger) *OutputCache {
	if config == nil {
		config = DefaultCacheConfig()
	}
	cache := &OutputCache{
		entries: make(map[string]*models.CacheEntry),
		config:  config,
		metrics: &CacheMetrics{},
		log:     logger.OrDefault(log, "cache"),
	}

	cache.log.Debugf("Created new output cache with config: MaxEntries=%d, TTL=%v",
		config.MaxEntries, config.DefaultTTL)

	return cache
}

// Get returns the cached output for filePath if it was generated from source.
func (oc *OutputCache) Get(filePath string, source []byte) ([]byte, bool) {
	oc.mutex.RLock()
	entry, exists := oc.entries[filePath]
	oc.mutex.RUnlock()

	if !exists {
		oc.incrementMisses()
		oc.log.Debugf("Cache miss for %s - entry not found", filePath)
		return nil, false
	}

	if !entry.IsValid(source) {
		oc.log.Debugf("Cache miss for %s - content changed", filePath)
		oc.InvalidateFile(filePath)
		oc.incrementMisses()
		return nil, false
	}

	if oc.isExpired(entry) {
		oc.log.Debugf("Cache miss for %s - entry expired", filePath)
		oc.InvalidateFile(filePath)
		oc.incrementMisses()
		return nil, false
	}

	oc.incrementHits()
	oc.log.Debugf("Cache hit for %s", filePath)
	return entry.Output, true
}

func (oc *OutputCache) Set(filePath string, source, output []byte) {
	entry := models.NewCacheEntry(filePath, source, output)

	oc.mutex.Lock()
	defer oc.mutex.Unlock()

	if _, exists := oc.entries[filePath]; !exists && len(oc.entries) >= oc.config.MaxEntries {
		oc.log.Debugf("Cache full, evicting oldest entries")
		oc.evictOldest()
	}

	oc.entries[filePath] = entry
}

func (oc *OutputCache) InvalidateFile(filePath string) {
	oc.mutex.Lock()
	defer oc.mutex.Unlock()

	if _, exists := oc.entries[filePath]; exists {
		delete(oc.entries, filePath)
		oc.metrics.Invalidations++
		oc.log.Debugf("Invalidated cache entry for %s", filePath)
	}
}

func (oc *OutputCache) GetMetrics() *CacheMetrics {
	oc.mutex.RLock()
	defer oc.mutex.RUnlock()

	metrics := *oc.metrics
	metrics.TotalEntries = len(oc.entries)
	metrics.CalculateHitRate()
	return &metrics
}

func (oc *OutputCache) LogStats() {
	if !oc.config.EnableMetrics {
		return
	}
	metrics := oc.GetMetrics()
	oc.log.Debugf("Cache stats: Hits=%d, Misses=%d, Hit Rate=%.1f%%, Total Entries=%d, Invalidations=%d",
		metrics.Hits, metrics.Misses, metrics.HitRate, metrics.TotalEntries, metrics.Invalidations)
}

func (oc *OutputCache) isExpired(entry *models.CacheEntry) bool {
	return time.Since(entry.CreatedAt) > oc.config.DefaultTTL
}

func (oc *OutputCache) evictOldest() {
	var oldestPath string
	var oldestTime time.Time

	for path, entry := range oc.entries {
		if oldestPath == "" || entry.CreatedAt.Before(oldestTime) {
			oldestPath = path
			oldestTime = entry.CreatedAt
		}
	}

	if oldestPath != "" {
		delete(oc.entries, oldestPath)
		oc.metrics.Invalidations++
		oc.log.Debugf("Evicted oldest cache entry: %s", oldestPath)
	}
}

func (oc *OutputCache) incrementHits() {
	oc.mutex.Lock()
	defer oc.mutex.Unlock()
	oc.metrics.Hits++
}

func (oc *OutputCache) incrementMisses() {
	oc.mutex.Lock()
	defer oc.mutex.Unlock()
	oc.metrics.Misses++
}
