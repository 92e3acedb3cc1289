package multiset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const emptyMultisetHash = "544eb3142c000f0ad2c76ac41f4222abbababed830eeafee4b6dc56b52d5cac0"

func TestEmptyMultisetHash(t *testing.T) {
	require.Equal(t, emptyMultisetHash, New().Hash().String())
}

func TestAddRemoveIsOrderIndependent(t *testing.T) {
	first := New()
	first.Add([]byte("a"))
	first.Add([]byte("b"))

	second := New()
	second.Add([]byte("b"))
	second.Add([]byte("c"))
	second.Add([]byte("a"))
	second.Remove([]byte("c"))

	require.Equal(t, first.Hash(), second.Hash())

	first.Remove([]byte("a"))
	first.Remove([]byte("b"))
	require.Equal(t, emptyMultisetHash, first.Hash().String())
}

func TestSerializeRoundTrip(t *testing.T) {
	ms := New()
	ms.Add([]byte("utxo"))

	deserialized, err := FromBytes(ms.Serialize())
	require.NoError(t, err)
	require.Equal(t, ms.Hash(), deserialized.Hash())

	clone := ms.Clone()
	clone.Add([]byte("other"))
	require.NotEqual(t, ms.Hash(), clone.Hash())

	_, err = FromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}
