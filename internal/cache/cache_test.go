package cache

import (
	"testing"
	"time"

	"github.com/cargoplus/productbot/pkg/models"
)

func sample(n int) []models.Product {
	out := make([]models.Product, n)
	for i := range out {
		out[i] = models.Product{Title: "item", Price: "$1.00", Source: "Alibaba"}
	}
	return out
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(1024 * 1024)
	defer c.Close()

	key := KeyFor("Alibaba", "laptop", 5)
	if err := c.Set(key, sample(2), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}

	// Mutating the returned slice must not leak into the cache
	got[0].Title = "changed"
	again, _ := c.Get(key)
	if again[0].Title != "item" {
		t.Errorf("cache entry was mutated through returned slice: %q", again[0].Title)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(1024 * 1024)
	defer c.Close()

	if err := c.Set("k", sample(1), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed, len=%d", c.Len())
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	one := estimateSize("a", sample(1))
	c := NewMemoryCache(one * 2)
	defer c.Close()

	_ = c.Set("a", sample(1), time.Minute)
	_ = c.Set("b", sample(1), time.Minute)
	c.Get("a") // a is now most recently used
	_ = c.Set("c", sample(1), time.Minute)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be cached")
	}
}

func TestMemoryCache_RejectsZeroTTL(t *testing.T) {
	c := NewMemoryCache(1024)
	defer c.Close()

	if err := c.Set("k", sample(1), 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestKeyFor_DistinguishesLimit(t *testing.T) {
	if KeyFor("Alibaba", "laptop", 2) == KeyFor("Alibaba", "laptop", 5) {
		t.Error("keys for different limits must differ")
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(1024 * 1024)
	defer c.Close()

	if rate := c.Stats().HitRate(); rate != 0 {
		t.Errorf("expected 0%% hit rate on an unused cache, got %.1f", rate)
	}

	c.Get("missing")
	_ = c.Set("k", sample(2), time.Minute)
	c.Get("k")
	c.Get("k")

	stats := c.Stats()
	if stats.Entries != 1 || stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.SizeBytes != estimateSize("k", sample(2)) || stats.MaxSize != 1024*1024 {
		t.Errorf("unexpected sizes %+v", stats)
	}
	if rate := stats.HitRate(); rate < 66 || rate > 67 {
		t.Errorf("expected ~66.7%% hit rate, got %.2f", rate)
	}
}
