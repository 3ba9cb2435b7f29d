/*
cache.go - Short-TTL read-through query cache

PURPOSE:
  Entity lists and stock catalogs are cached for a few seconds at most,
  keyed by query-key strings ("ComplaintList", "medicineStocks"). The
  cache is explicitly invalidated after any mutating call and is never
  written through with an assumed post-write state - the next read goes
  back to the store.

EXPIRY:
  Lazy: entries past their TTL are treated as misses on Get. With
  seconds-scale TTLs and a handful of keys there is nothing worth a
  cleanup goroutine.
*/
package lifecycle

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// QueryCache is a thread-safe TTL cache for query results.
type QueryCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	ttl   time.Duration

	// now is overridable for tests.
	now func() time.Time
}

// NewQueryCache creates a cache with the given TTL.
func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{
		items: make(map[string]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a cached value if present and unexpired.
func (qc *QueryCache) Get(key string) (any, bool) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()

	e, ok := qc.items[key]
	if !ok || qc.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value under a key for one TTL.
func (qc *QueryCache) Set(key string, value any) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.items[key] = cacheEntry{value: value, expiresAt: qc.now().Add(qc.ttl)}
}

// Invalidate drops the given keys.
func (qc *QueryCache) Invalidate(keys ...string) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	for _, k := range keys {
		delete(qc.items, k)
	}
}

// Fetch is the read-through path: return the cached value or load, cache,
// and return a fresh one.
func (qc *QueryCache) Fetch(key string, load func() (any, error)) (any, error) {
	if v, ok := qc.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	qc.Set(key, v)
	return v, nil
}

// =============================================================================
// QUERY KEYS
// =============================================================================

var listKeys = map[Kind]string{
	KindComplaint: "ComplaintList",
	KindClearance: "ClearanceList",
	KindSummon:    "SummonList",
}

// ListKey is the cache key for a kind's list query.
func ListKey(kind Kind) string {
	if k, ok := listKeys[kind]; ok {
		return k
	}
	return string(kind) + "List"
}

// DetailKey is the cache key for one entity's detail query.
func DetailKey(kind Kind, id string) string {
	return string(kind) + "/" + id
}

// StockKey is the cache key for a dispensing kind's catalog query,
// e.g. "medicineStocks".
func StockKey(kindID string) string {
	return kindID + "Stocks"
}
