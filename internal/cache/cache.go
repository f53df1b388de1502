// Package cache holds search results between operations so repeated requests
// within the TTL window never spin up a second browser session.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rroethle7474/timehealer-api/pkg/types"
)

// ResultCache is a time-bounded, capacity-bounded result store. All methods
// are safe for concurrent use; entry expiry and LRU eviction happen
// transparently to readers.
type ResultCache struct {
	entries    *expirable.LRU[string, types.ResultSet]
	maxEntries int
	ttl        time.Duration
}

func New(maxEntries int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries:    expirable.NewLRU[string, types.ResultSet](maxEntries, nil, ttl),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Fingerprint derives the cache key for an operation: operation type, target
// URL, default flag, and the query set independent of order.
func Fingerprint(op types.OperationType, targetURL string, queries []string, isDefault bool) string {
	sorted := append([]string(nil), queries...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(targetURL))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(isDefault)))
	for _, q := range sorted {
		h.Write([]byte{0})
		h.Write([]byte(q))
	}
	return string(op) + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

func (c *ResultCache) Get(key string) (types.ResultSet, bool) {
	return c.entries.Get(key)
}

func (c *ResultCache) Set(key string, results types.ResultSet) {
	c.entries.Add(key, results)
}

func (c *ResultCache) Has(key string) bool {
	return c.entries.Contains(key)
}

func (c *ResultCache) Clear() {
	c.entries.Purge()
}

func (c *ResultCache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"entries":     c.entries.Len(),
		"max_entries": c.maxEntries,
		"ttl_seconds": int(c.ttl.Seconds()),
	}
}
