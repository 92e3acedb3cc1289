package lrucache

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	lru "github.com/hashicorp/golang-lru"
)

// OutpointToUTXOEntryCache is a least-recently-used cache of UTXO entries
// indexed by their outpoint
type OutpointToUTXOEntryCache struct {
	cache *lru.Cache
}

// NewOutpointToUTXOEntry creates a new OutpointToUTXOEntryCache
func NewOutpointToUTXOEntry(capacity int) *OutpointToUTXOEntryCache {
	cache, err := lru.New(capacity)
	if err != nil {
		panic(err)
	}
	return &OutpointToUTXOEntryCache{cache: cache}
}

// Add adds an entry to the cache
func (c *OutpointToUTXOEntryCache) Add(key *externalapi.DomainOutpoint, value externalapi.UTXOEntry) {
	c.cache.Add(*key, value)
}

// Get returns the entry for the given outpoint, or (nil, false) otherwise
func (c *OutpointToUTXOEntryCache) Get(key *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool) {
	value, ok := c.cache.Get(*key)
	if !ok {
		return nil, false
	}
	return value.(externalapi.UTXOEntry), true
}

// Remove removes the entry for the given outpoint
func (c *OutpointToUTXOEntryCache) Remove(key *externalapi.DomainOutpoint) {
	c.cache.Remove(*key)
}

// Clear removes every entry
func (c *OutpointToUTXOEntryCache) Clear() {
	c.cache.Purge()
}
