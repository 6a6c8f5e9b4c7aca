// internal/cache/cache.go
package cache

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cargoplus/productbot/pkg/models"
	"github.com/rs/zerolog/log"
)

// Cache defines the interface for search result caching implementations.
//
// Implementations must return copies so callers own the slices they receive.
type Cache interface {
	// Get retrieves cached products by key.
	// Returns the products and a boolean indicating if the key was found.
	Get(key string) ([]models.Product, bool)

	// Set stores products in cache with the specified TTL.
	// If the key already exists, it is updated.
	Set(key string, products []models.Product, ttl time.Duration) error

	// Stats reports occupancy and hit counters.
	Stats() Stats

	// Close stops background goroutines.
	Close()
}

// Stats is a snapshot of cache usage
type Stats struct {
	Entries   int
	SizeBytes int64
	MaxSize   int64
	Hits      uint64
	Misses    uint64
}

// HitRate returns hits as a percentage of lookups
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

type cacheEntry struct {
	Products  []models.Product
	ExpiresAt time.Time
	Key       string // For LRU tracking
	Size      int64
}

// MemoryCache implements in-memory result caching with LRU eviction
type MemoryCache struct {
	store   map[string]*list.Element
	lruList *list.List
	mu      sync.Mutex
	maxSize int64 // Maximum cache size in bytes
	size    int64 // Current size in bytes
	ctx     context.Context
	cancel  context.CancelFunc
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a new in-memory cache with LRU eviction
func NewMemoryCache(maxSizeBytes int64) *MemoryCache {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 8 * 1024 * 1024
	}

	ctx, cancel := context.WithCancel(context.Background())

	cache := &MemoryCache{
		store:   make(map[string]*list.Element),
		lruList: list.New(),
		maxSize: maxSizeBytes,
		ctx:     ctx,
		cancel:  cancel,
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves cached products and marks the entry as most recently used
func (mc *MemoryCache) Get(key string) ([]models.Product, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		return nil, false
	}

	entry := element.Value.(*cacheEntry)
	if time.Now().After(entry.ExpiresAt) {
		mc.misses++
		mc.removeElement(element)
		return nil, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++

	log.Debug().Str("key", key).Msg("Cache hit")
	return cloneProducts(entry.Products), true
}

// Set stores products in cache with TTL
func (mc *MemoryCache) Set(key string, products []models.Product, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be > 0")
	}

	size := estimateSize(key, products)
	if size > mc.maxSize {
		return fmt.Errorf("entry of %d bytes exceeds cache size %d", size, mc.maxSize)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.removeElement(element)
	}

	for mc.size+size > mc.maxSize && mc.lruList.Len() > 0 {
		mc.evictLRU()
	}

	entry := &cacheEntry{
		Products:  cloneProducts(products),
		ExpiresAt: time.Now().Add(ttl),
		Key:       key,
		Size:      size,
	}
	mc.store[key] = mc.lruList.PushFront(entry)
	mc.size += size

	log.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Int64("size_bytes", size).
		Msg("Cached search result")

	return nil
}

// Close stops the background cleanup goroutine
func (mc *MemoryCache) Close() {
	mc.cancel()
	log.Debug().Msg("Cache closed")
}

// Len returns the number of live entries
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lruList.Len()
}

// must be called with lock held
func (mc *MemoryCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)
	mc.size -= entry.Size
}

// evictLRU removes the least recently used entry (must be called with lock held)
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}
	mc.removeElement(element)
	log.Debug().Str("key", element.Value.(*cacheEntry).Key).Msg("Evicted from cache (LRU)")
}

// cleanupExpired periodically removes expired entries
func (mc *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := time.Now()
			var next *list.Element
			for element := mc.lruList.Front(); element != nil; element = next {
				next = element.Next()
				if now.After(element.Value.(*cacheEntry).ExpiresAt) {
					mc.removeElement(element)
				}
			}
			mc.mu.Unlock()
		case <-mc.ctx.Done():
			return
		}
	}
}

// Stats returns a snapshot of cache usage
func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return Stats{
		Entries:   mc.lruList.Len(),
		SizeBytes: mc.size,
		MaxSize:   mc.maxSize,
		Hits:      mc.hits,
		Misses:    mc.misses,
	}
}

// KeyFor builds the cache key for a search
func KeyFor(site, query string, maxResults int) string {
	return fmt.Sprintf("%s::%d::%s", strings.ToLower(site), maxResults, query)
}

func estimateSize(key string, products []models.Product) int64 {
	size := int64(len(key)) + 64
	for _, p := range products {
		size += int64(len(p.Title)+len(p.Price)+len(p.Source)) + 48
	}
	return size
}

func cloneProducts(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}
