// Package cache is the volatile TTL store that memoises geocoder results,
// provider quotes and computed fallback quotes.
package cache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is applied when Set is called with a non-positive ttl.
const DefaultTTL = 24 * time.Hour

// Entry is the stored form of a value.
type Entry struct {
	Key      string
	Value    any
	StoredAt time.Time
	TTL      time.Duration
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

// Cache is a time-boxed key/value store. Expired entries are never returned
// and are removed by the read that discovers them. There is no size bound.
type Cache struct {
	store      *gocache.Cache
	defaultTTL time.Duration
	now        func() time.Time

	// mu orders the expiry check and the delete on read so a concurrent Set of
	// a fresh value for the same key is never removed by a stale reader.
	mu sync.Mutex
}

// New creates a cache. go-cache's own janitor is disabled; expiry is handled
// on read and by Sweep.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		store:      gocache.New(gocache.NoExpiration, 0),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the value stored under key. An entry older than its TTL counts
// as a miss and is deleted.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	entry, ok := raw.(Entry)
	if !ok {
		c.store.Delete(key)
		return nil, false
	}
	if entry.expired(c.now()) {
		c.store.Delete(key)
		return nil, false
	}
	return entry.Value, true
}

// Lookup is like Get but returns the whole entry.
func (c *Cache) Lookup(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.store.Get(key)
	if !ok {
		return Entry{}, false
	}
	entry, ok := raw.(Entry)
	if !ok || entry.expired(c.now()) {
		c.store.Delete(key)
		return Entry{}, false
	}
	return entry, true
}

// Set stores value under key for ttl (DefaultTTL when ttl <= 0).
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Set(key, Entry{Key: key, Value: value, StoredAt: c.now(), TTL: ttl}, gocache.NoExpiration)
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Delete(key)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.store.Items() {
		entry, ok := item.Object.(Entry)
		if !ok || entry.expired(now) {
			c.store.Delete(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of physically stored entries, expired or not.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Flush removes all entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Flush()
}

// Key builds "provider:address[:service]" with the address normalised so
// cosmetically different spellings share a slot.
func Key(provider, address string, service ...string) string {
	parts := []string{provider, NormalizeAddress(address)}
	for _, s := range service {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ":")
}

// NormalizeAddress lowercases, trims and collapses internal whitespace.
func NormalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
