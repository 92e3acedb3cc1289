package lrucache

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	lru "github.com/hashicorp/golang-lru"
)

// Uint64ToHashCache is a least-recently-used cache from uint64 to DomainHash
type Uint64ToHashCache struct {
	cache *lru.Cache
}

// NewUint64ToHash creates a new Uint64ToHashCache
func NewUint64ToHash(capacity int) *Uint64ToHashCache {
	cache, err := lru.New(capacity)
	if err != nil {
		panic(err)
	}
	return &Uint64ToHashCache{cache: cache}
}

// Add adds an entry to the cache
func (c *Uint64ToHashCache) Add(key uint64, value *externalapi.DomainHash) {
	c.cache.Add(key, value)
}

// Get returns the entry for the given key, or (nil, false) otherwise
func (c *Uint64ToHashCache) Get(key uint64) (*externalapi.DomainHash, bool) {
	value, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return value.(*externalapi.DomainHash), true
}

// Remove removes the entry for the the given key. Does nothing if
// the entry does not exist
func (c *Uint64ToHashCache) Remove(key uint64) {
	c.cache.Remove(key)
}

// Clear removes every entry
func (c *Uint64ToHashCache) Clear() {
	c.cache.Purge()
}
