package lrucache

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := New(2)
	a := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
	b := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{2})
	c := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{3})

	cache.Add(a, 1)
	cache.Add(b, 2)
	_, ok := cache.Get(a)
	require.True(t, ok)

	cache.Add(c, 3)
	require.True(t, cache.Has(a))
	require.False(t, cache.Has(b))
	require.True(t, cache.Has(c))

	cache.Remove(a)
	require.False(t, cache.Has(a))
}

func TestUint64ToHashCache(t *testing.T) {
	cache := NewUint64ToHash(10)
	hash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{9})
	cache.Add(5, hash)

	got, ok := cache.Get(5)
	require.True(t, ok)
	require.True(t, got.Equal(hash))

	_, ok = cache.Get(6)
	require.False(t, ok)
}
