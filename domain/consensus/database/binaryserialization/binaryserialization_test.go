package binaryserialization

import (
	"bytes"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

func TestChainBlockIndexKeysSortNumerically(t *testing.T) {
	indexes := []uint64{0, 1, 255, 256, 1 << 40}
	for i := 1; i < len(indexes); i++ {
		previous := SerializeChainBlockIndex(indexes[i-1])
		current := SerializeChainBlockIndex(indexes[i])
		if bytes.Compare(previous, current) >= 0 {
			t.Fatalf("key of %d does not sort before key of %d", indexes[i-1], indexes[i])
		}
		deserialized, err := DeserializeChainBlockIndex(current)
		if err != nil {
			t.Fatalf("DeserializeChainBlockIndex: %+v", err)
		}
		if deserialized != indexes[i] {
			t.Fatalf("expected %d, got %d", indexes[i], deserialized)
		}
	}

	_, err := DeserializeChainBlockIndex([]byte{1, 2, 3})
	if err == nil {
		t.Fatalf("expected an error for a short index")
	}
}

func TestHashRoundTrip(t *testing.T) {
	hash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{7, 8, 9})
	deserialized, err := DeserializeHash(SerializeHash(hash))
	if err != nil {
		t.Fatalf("DeserializeHash: %+v", err)
	}
	if !deserialized.Equal(hash) {
		t.Fatalf("expected %s, got %s", hash, deserialized)
	}
}
