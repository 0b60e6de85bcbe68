// Package query implements the keyed list-query cache sitting between
// the table views and the record service client.
//
// HOW THE CACHE IS USED:
// ──────────────────────
// A view derives a key from its current (search, page, pageSize) with
// Key() and calls Get() with a fetch function. The first Get for a key
// fetches and stores the result; every later Get for the same key is a
// cache hit until something invalidates it. Mutation flows invalidate by
// record-type prefix after a successful write, which is the only way the
// tables learn about changes — no direct callbacks between components.
//
// Key construction lives in exactly one pure function so the fetch side
// and the invalidation side can never drift apart.
package query

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State classifies a cache entry.
type State int

const (
	// Loading: a fetch for this key is in flight and no result has
	// ever been stored.
	Loading State = iota
	// Failed: the last fetch errored. The entry stays Failed (no
	// automatic retry) until the key is invalidated or abandoned.
	Failed
	// Ready: data is present and trusted.
	Ready
)

// Entry is the observable state of one key at one moment:
// Loading (no data yet), Failed (Err set), or Ready (Data set).
type Entry struct {
	State State
	Data  any
	Err   error
}

// FetchFunc loads the value for a key. It is called at most once per
// unique key while a fetch is in flight, regardless of how many callers
// ask concurrently.
type FetchFunc func(ctx context.Context) (any, error)

// Key builds the deterministic cache key for a list query. It is a pure
// function of its inputs: identical inputs always produce the same key.
//
// The key doubles as a readable request line,
// e.g. "/students?search=ram&page=2&page_size=10".
func Key(path, search string, page, pageSize int) string {
	return fmt.Sprintf("%s?search=%s&page=%d&page_size=%d",
		path, url.QueryEscape(search), page, pageSize)
}

// Cache is an explicit, session-scoped object: construct one per
// application (or per test) and pass it to the components that need it.
// Nothing here is process-global.
//
// Safe for concurrent use. Writers to different keys never conflict;
// within one key the generation counter decides whether a completed
// fetch may be stored.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	// gens counts invalidations per key. A fetch remembers the
	// generation it started under and its result is only stored if the
	// generation is unchanged when it completes — a result that lost a
	// race with Invalidate is handed to its caller but never cached.
	gens  map[string]uint64
	group singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		gens:    make(map[string]uint64),
	}
}

// Get returns the entry for key, fetching it if the cache holds nothing
// usable. Both Ready and Failed entries are served from cache: a failed
// list fetch is not retried until the user changes parameters or
// explicitly refreshes, which invalidates the key.
//
// Concurrent Gets for the same key share a single in-flight fetch.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) Entry {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.State != Loading {
		c.mu.Unlock()
		return e
	}
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = Entry{State: Loading}
	}
	gen := c.gens[key]
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		return fetch(ctx)
	})

	e := Entry{State: Ready, Data: v}
	if err != nil {
		e = Entry{State: Failed, Err: err}
	}

	c.mu.Lock()
	if c.gens[key] == gen {
		c.entries[key] = e
	}
	c.mu.Unlock()
	return e
}

// Peek returns the current entry for key without triggering a fetch.
// The second return is false when the key has never been seen.
func (c *Cache) Peek(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Invalidate drops one exact key. The next Get for it re-fetches, and
// any fetch already in flight for it completes without being stored.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(key)
}

// InvalidatePrefix drops every key beginning with prefix. Mutation flows
// call this with the record-type base path ("/students", "/payments") so
// that all cached pages and searches of that type re-fetch.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.invalidateLocked(key)
		}
	}
}

func (c *Cache) invalidateLocked(key string) {
	c.gens[key]++
	delete(c.entries, key)
}
