package binaryserialization

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Big endian keeps the lexicographic key order equal to the numeric index order
var byteOrder = binary.BigEndian

// SerializeChainBlockIndex serializes chain block index
func SerializeChainBlockIndex(index uint64) []byte {
	var keyBytes [8]byte
	byteOrder.PutUint64(keyBytes[:], index)
	return keyBytes[:]
}

// DeserializeChainBlockIndex deserializes chain block index to uint64
func DeserializeChainBlockIndex(indexBytes []byte) (uint64, error) {
	if len(indexBytes) != 8 {
		return 0, errors.Errorf("invalid chain block index length %d", len(indexBytes))
	}
	return byteOrder.Uint64(indexBytes), nil
}
