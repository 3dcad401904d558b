package cache

import (
	"iter"
	"maps"
	"time"
)

// Config controls expiration.
//
// TTL is counted in whole seconds. An entry is stale once the whole seconds
// elapsed since its last Set exceed TTL, so TTL == 0 keeps an entry readable
// for the rest of the second it was written in.
type Config struct {
	TTL uint64
}

// Option customizes a Cache at construction.
type Option func(*Cache)

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache is an in-memory key–value cache with TTL expiration and approximate
// byte accounting.
//
// Ownership model:
// Cache has no goroutines and no locks. It is owned by one caller at a time.
type Cache struct {
	ttl uint64
	now func() time.Time

	items map[string]*entry
	index *index
	bytes int

	// seq hands out versions. It is never reset, so a token left behind by a
	// deleted key can not match a later entry under the same key.
	seq uint64
}

// entry is the value stored per key.
type entry struct {
	value    string
	created  time.Time
	modified time.Time
	version  uint64
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries  int    `json:"entries"`
	Bytes    int    `json:"bytes"`
	IndexLen int    `json:"index_len"`
	TTL      uint64 `json:"ttl_seconds"`
}

// New constructs an empty cache bound to cfg.
//
// New never returns a nil Cache.
func New(cfg Config, opts ...Option) *Cache {
	c := &Cache{
		ttl:   cfg.TTL,
		now:   time.Now,
		items: make(map[string]*entry),
		index: newIndex(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Empty drops every entry and resets the byte counter.
func (c *Cache) Empty() {
	clear(c.items)
	c.index.reset()
	c.bytes = 0
}

// Get returns the value stored at key if it has not outlived the TTL.
//
// A stale entry is reported as missing but left in place; Prune, Set or
// Delete reconcile it.
func (c *Cache) Get(key string) ([]byte, bool) {
	e, ok := c.items[key]
	if !ok || c.stale(e.modified, c.now()) {
		return nil, false
	}
	return []byte(e.value), true
}

// Set writes or overwrites key.
//
// Overwriting keeps the entry's creation time and refreshes its modification
// time. Either way a new token is appended to the insertion index.
func (c *Cache) Set(key string, value []byte) {
	now := c.now()
	c.seq++

	e, ok := c.items[key]
	if ok {
		c.bytes -= SizeOf(e.value)
	} else {
		c.bytes += SizeOf(key)
		e = &entry{created: now}
		c.items[key] = e
	}

	e.value = string(value)
	e.modified = now
	e.version = c.seq
	c.bytes += SizeOf(e.value)

	c.index.push(key, e.version)
}

// Delete removes key if present.
//
// Tokens for key stay in the insertion index; Prune discards them when it
// reaches them.
func (c *Cache) Delete(key string) {
	e, ok := c.items[key]
	if !ok {
		return
	}
	delete(c.items, key)
	c.bytes -= SizeOf(key) + SizeOf(e.value)
}

// Keys returns a lazy sequence of the live keys in unspecified order.
// Each call yields a fresh sequence.
func (c *Cache) Keys() iter.Seq[string] {
	return maps.Keys(c.items)
}

// Count returns the number of stored entries, stale ones included.
func (c *Cache) Count() int {
	return len(c.items)
}

// Size returns the approximate number of bytes held by keys and values.
func (c *Cache) Size() int {
	return c.bytes
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:  len(c.items),
		Bytes:    c.bytes,
		IndexLen: c.index.len(),
		TTL:      c.ttl,
	}
}

// Prune reclaims entries whose last Set is older than the TTL and returns how
// many were removed.
//
// The scan walks the insertion index from the oldest token:
//   - a stale token (key gone, or refreshed since) is dropped; its entry is never touched
//   - a current token for an expired entry deletes that entry
//   - a current token for a fresh entry ends the scan
//
// Tokens are appended in modification order, so once a current token is fresh
// every current token behind it is fresh too. The scanned prefix is removed
// from the index.
//
// Complexity: O(expired entries + stale tokens ahead of the first fresh one).
func (c *Cache) Prune() int {
	now := c.now()
	var expired []string

	for el := c.index.front(); el != nil; {
		tok := el.Value.(token)
		if e, ok := c.items[tok.key]; ok && e.version == tok.version {
			if !c.stale(e.modified, now) {
				break
			}
			expired = append(expired, tok.key)
		}
		next := el.Next()
		c.index.remove(el)
		el = next
	}

	for _, key := range expired {
		c.Delete(key)
	}
	return len(expired)
}

func (c *Cache) stale(t, now time.Time) bool {
	age := now.Sub(t)
	if age < 0 {
		return false
	}
	return uint64(age/time.Second) > c.ttl
}
