// Package weather – advisory cache.
//
// A small in-memory cache keyed by normalized city name. Entries live for a
// fixed TTL; when the cache is full the oldest inserted entry is evicted
// (FIFO, not LRU – a hit does not refresh an entry's position or lifetime).
// The clock is injected so tests can step time instead of sleeping.
package weather

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeCityKey canonicalizes a city name for cache lookups: lowercase,
// diacritics stripped (NFD, combining marks removed), surrounding whitespace
// trimmed. "São Paulo", "sao paulo" and " SAO PAULO " share one slot.
func NormalizeCityKey(city string) string {
	s := strings.ToLower(city)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.TrimSpace(s)
}

type cacheEntry struct {
	advisory Advisory
	storedAt time.Time
}

// Cache is a bounded TTL cache of advisories. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]cacheEntry
	order    []string // insertion order, oldest first
	clock    clockwork.Clock

	hits   uint64
	misses uint64
}

// NewCache builds a cache holding at most capacity entries for ttl each.
// A nil clock means the real clock.
func NewCache(ttl time.Duration, capacity int, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]cacheEntry, capacity),
		clock:    clock,
	}
}

// Get returns the cached advisory for key and the time it was stored.
// An entry aged exactly ttl is still fresh; expired entries are removed on
// access and reported as misses.
func (c *Cache) Get(key string) (Advisory, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.clock.Since(e.storedAt) > c.ttl {
		c.remove(key)
		ok = false
	}
	if !ok {
		c.misses++
		return Advisory{}, time.Time{}, false
	}
	c.hits++
	return e.advisory, e.storedAt, true
}

// Put stores an advisory under key, evicting the oldest entry if the cache
// is full. Storing an existing key refreshes its value and lifetime without
// changing its eviction position.
func (c *Cache) Put(key string, adv Advisory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = cacheEntry{advisory: adv, storedAt: c.clock.Now()}
		return
	}
	if len(c.entries) >= c.capacity && len(c.order) > 0 {
		c.remove(c.order[0])
	}
	c.entries[key] = cacheEntry{advisory: adv, storedAt: c.clock.Now()}
	c.order = append(c.order, key)
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// remove deletes key from the map and the order slice. Caller holds c.mu.
func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// CacheStats is a point-in-time snapshot of cache usage.
type CacheStats struct {
	Entries  int      `json:"entries"`
	Capacity int      `json:"max_entries"`
	TTLMs    int64    `json:"ttl_ms"`
	Hits     uint64   `json:"hits"`
	Misses   uint64   `json:"misses"`
	Cities   []string `json:"cities"`
}

// Stats returns a snapshot of the cache contents and hit counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	cities := make([]string, len(c.order))
	copy(cities, c.order)
	return CacheStats{
		Entries:  len(c.entries),
		Capacity: c.capacity,
		TTLMs:    c.ttl.Milliseconds(),
		Hits:     c.hits,
		Misses:   c.misses,
		Cities:   cities,
	}
}
