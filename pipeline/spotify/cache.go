package spotify

import (
	"container/list"
	"sync"
	"time"
)

type cacheEntry struct {
	key       string
	value     interface{}
	expiresAt time.Time
	element   *list.Element
}

// TTLCache is a thread-safe TTL cache with LRU eviction. Playlist and
// track pages are cached so that re-running a batch within the TTL does
// not re-hit the API.
type TTLCache struct {
	mu      sync.Mutex
	cache   map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
}

// NewTTLCache creates a cache holding up to maxSize entries for ttl each.
func NewTTLCache(maxSize int, ttl time.Duration) *TTLCache {
	return &TTLCache{
		cache:   make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached value or nil when absent or expired.
func (c *TTLCache) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.cache, key)
		c.lruList.Remove(entry.element)
		return nil
	}
	c.lruList.MoveToFront(entry.element)
	return entry.value
}

// Set stores a value, evicting the least recently used entry when full.
func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.cache[key]; ok {
		existing.value = value
		existing.expiresAt = time.Now().Add(c.ttl)
		c.lruList.MoveToFront(existing.element)
		return
	}

	if len(c.cache) >= c.maxSize {
		if back := c.lruList.Back(); back != nil {
			old := back.Value.(*cacheEntry)
			delete(c.cache, old.key)
			c.lruList.Remove(back)
		}
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	entry.element = c.lruList.PushFront(entry)
	c.cache[key] = entry
}

// Len returns the number of live entries.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Clear drops all entries.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cacheEntry)
	c.lruList.Init()
}
