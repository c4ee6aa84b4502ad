package cache

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is used when Set is called without a positive TTL
const DefaultTTL = 5 * time.Minute

// MemoryCache is a size-bounded in-memory cache. When full it evicts expired
// entries first and then the entries that expire soonest.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*cacheItem
	maxSize int64
	size    int64
	now     func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type cacheItem struct {
	value  []byte
	expiry time.Time
	size   int64
}

// NewMemoryCache creates a cache holding at most maxSizeMB megabytes and
// starts its expiry sweeper. A non-positive size means unbounded.
func NewMemoryCache(maxSizeMB int64) *MemoryCache {
	mc := newMemoryCache(maxSizeMB*1024*1024, time.Now)

	mc.wg.Add(1)
	go mc.sweep(time.Minute)

	return mc
}

func newMemoryCache(maxBytes int64, now func() time.Time) *MemoryCache {
	return &MemoryCache{
		items:   make(map[string]*cacheItem),
		maxSize: maxBytes,
		now:     now,
		stopCh:  make(chan struct{}),
	}
}

// Get retrieves a value from the cache
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, exists := mc.items[key]
	if !exists || !mc.now().Before(item.expiry) {
		if exists {
			mc.remove(key, item)
		}
		mc.misses.Add(1)
		return nil, false
	}

	mc.hits.Add(1)
	return item.value, true
}

// Set stores a value in the cache with a TTL. Values larger than the whole
// cache are not stored.
func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	size := int64(len(key) + len(value))
	if mc.maxSize > 0 && size > mc.maxSize {
		return nil
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if old, exists := mc.items[key]; exists {
		mc.remove(key, old)
	}
	mc.makeRoom(size)

	mc.items[key] = &cacheItem{value: value, expiry: mc.now().Add(ttl), size: size}
	mc.size += size
	mc.sets.Add(1)
	return nil
}

// Delete removes a value from the cache
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if item, exists := mc.items[key]; exists {
		mc.remove(key, item)
	}
	return nil
}

// Clear removes all values from the cache
func (mc *MemoryCache) Clear(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.items = make(map[string]*cacheItem)
	mc.size = 0
	return nil
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	entries, size := len(mc.items), mc.size
	mc.mu.Unlock()

	return Stats{
		Hits:      mc.hits.Load(),
		Misses:    mc.misses.Load(),
		Sets:      mc.sets.Load(),
		Evictions: mc.evictions.Load(),
		Entries:   entries,
		Size:      size,
		MaxSize:   mc.maxSize,
	}
}

// Stop ends the expiry sweeper
func (mc *MemoryCache) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopCh) })
	mc.wg.Wait()
}

func (mc *MemoryCache) sweep(interval time.Duration) {
	defer mc.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			mc.removeExpired()
			mc.mu.Unlock()
		case <-mc.stopCh:
			return
		}
	}
}

// remove deletes key; the caller holds mu
func (mc *MemoryCache) remove(key string, item *cacheItem) {
	delete(mc.items, key)
	mc.size -= item.size
}

// removeExpired drops every expired entry; the caller holds mu
func (mc *MemoryCache) removeExpired() {
	now := mc.now()
	for key, item := range mc.items {
		if !now.Before(item.expiry) {
			mc.remove(key, item)
			mc.evictions.Add(1)
		}
	}
}

// makeRoom evicts entries until size more bytes fit; the caller holds mu
func (mc *MemoryCache) makeRoom(size int64) {
	if mc.maxSize <= 0 || mc.size+size <= mc.maxSize {
		return
	}

	mc.removeExpired()
	if mc.size+size <= mc.maxSize {
		return
	}

	keys := make([]string, 0, len(mc.items))
	for key := range mc.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return mc.items[keys[i]].expiry.Before(mc.items[keys[j]].expiry)
	})

	for _, key := range keys {
		if mc.size+size <= mc.maxSize {
			return
		}
		mc.remove(key, mc.items[key])
		mc.evictions.Add(1)
	}
}
