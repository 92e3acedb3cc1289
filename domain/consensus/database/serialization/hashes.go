package serialization

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// DbHashes is a stored list of hashes, used for tips and similar records
type DbHashes struct {
	Hashes [][]byte `msgpack:"h"`
}

// SerializeHashes encodes a list of hashes for storage
func SerializeHashes(hashes []*externalapi.DomainHash) ([]byte, error) {
	return Marshal(&DbHashes{Hashes: DomainHashesToDbHashes(hashes)})
}

// DeserializeHashes decodes a stored list of hashes
func DeserializeHashes(hashesBytes []byte) ([]*externalapi.DomainHash, error) {
	dbHashes := &DbHashes{}
	err := Unmarshal(hashesBytes, dbHashes)
	if err != nil {
		return nil, err
	}
	return DbHashesToDomainHashes(dbHashes.Hashes)
}

// DbCount is a stored counter
type DbCount struct {
	Count uint64 `msgpack:"c"`
}

// SerializeCount encodes a counter for storage
func SerializeCount(count uint64) ([]byte, error) {
	return Marshal(&DbCount{Count: count})
}

// DeserializeCount decodes a stored counter
func DeserializeCount(countBytes []byte) (uint64, error) {
	dbCount := &DbCount{}
	err := Unmarshal(countBytes, dbCount)
	if err != nil {
		return 0, err
	}
	return dbCount.Count, nil
}
