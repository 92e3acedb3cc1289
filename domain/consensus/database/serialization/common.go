package serialization

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes a database record
func Marshal(record interface{}) ([]byte, error) {
	recordBytes, err := msgpack.Marshal(record)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return recordBytes, nil
}

// Unmarshal decodes a database record into the given pointer
func Unmarshal(recordBytes []byte, record interface{}) error {
	err := msgpack.Unmarshal(recordBytes, record)
	if err != nil {
		return errors.Wrapf(err, "failed decoding %T", record)
	}
	return nil
}

// DomainHashToDbHash converts a DomainHash to its database form
func DomainHashToDbHash(domainHash *externalapi.DomainHash) []byte {
	if domainHash == nil {
		return nil
	}
	return domainHash.ByteSlice()
}

// DbHashToDomainHash converts a database hash to a DomainHash
func DbHashToDomainHash(dbHash []byte) (*externalapi.DomainHash, error) {
	return externalapi.NewDomainHashFromByteSlice(dbHash)
}

// DomainHashesToDbHashes converts a slice of DomainHash to database hashes
func DomainHashesToDbHashes(domainHashes []*externalapi.DomainHash) [][]byte {
	dbHashes := make([][]byte, len(domainHashes))
	for i, domainHash := range domainHashes {
		dbHashes[i] = DomainHashToDbHash(domainHash)
	}
	return dbHashes
}

// DbHashesToDomainHashes converts database hashes to a slice of DomainHash
func DbHashesToDomainHashes(dbHashes [][]byte) ([]*externalapi.DomainHash, error) {
	domainHashes := make([]*externalapi.DomainHash, len(dbHashes))
	for i, dbHash := range dbHashes {
		var err error
		domainHashes[i], err = DbHashToDomainHash(dbHash)
		if err != nil {
			return nil, err
		}
	}
	return domainHashes, nil
}
