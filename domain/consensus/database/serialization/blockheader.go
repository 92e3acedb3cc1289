package serialization

import (
	"math"
	"math/big"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/blockheader"
	"github.com/pkg/errors"
)

// DbBlockHeader is the stored form of a block header
type DbBlockHeader struct {
	Version              uint32     `msgpack:"v"`
	Parents              [][][]byte `msgpack:"p"`
	HashMerkleRoot       []byte     `msgpack:"hmr"`
	AcceptedIDMerkleRoot []byte     `msgpack:"amr"`
	UTXOCommitment       []byte     `msgpack:"uc"`
	TimeInMilliseconds   int64      `msgpack:"t"`
	Bits                 uint32     `msgpack:"b"`
	Nonce                uint64     `msgpack:"n"`
	DAAScore             uint64     `msgpack:"daa"`
	BlueScore            uint64     `msgpack:"bs"`
	BlueWork             []byte     `msgpack:"bw"`
	PruningPoint         []byte     `msgpack:"pp"`
}

// DomainBlockHeaderToDbBlockHeader converts BlockHeader to DbBlockHeader
func DomainBlockHeaderToDbBlockHeader(domainBlockHeader externalapi.BlockHeader) *DbBlockHeader {
	parents := make([][][]byte, len(domainBlockHeader.Parents()))
	for i, blockLevelParents := range domainBlockHeader.Parents() {
		parents[i] = DomainHashesToDbHashes(blockLevelParents)
	}

	return &DbBlockHeader{
		Version:              uint32(domainBlockHeader.Version()),
		Parents:              parents,
		HashMerkleRoot:       DomainHashToDbHash(domainBlockHeader.HashMerkleRoot()),
		AcceptedIDMerkleRoot: DomainHashToDbHash(domainBlockHeader.AcceptedIDMerkleRoot()),
		UTXOCommitment:       DomainHashToDbHash(domainBlockHeader.UTXOCommitment()),
		TimeInMilliseconds:   domainBlockHeader.TimeInMilliseconds(),
		Bits:                 domainBlockHeader.Bits(),
		Nonce:                domainBlockHeader.Nonce(),
		DAAScore:             domainBlockHeader.DAAScore(),
		BlueScore:            domainBlockHeader.BlueScore(),
		BlueWork:             domainBlockHeader.BlueWork().Bytes(),
		PruningPoint:         DomainHashToDbHash(domainBlockHeader.PruningPoint()),
	}
}

// DbBlockHeaderToDomainBlockHeader converts DbBlockHeader to BlockHeader
func DbBlockHeaderToDomainBlockHeader(dbBlockHeader *DbBlockHeader) (externalapi.BlockHeader, error) {
	if dbBlockHeader.Version > math.MaxUint16 {
		return nil, errors.Errorf("invalid header version - bigger then uint16")
	}
	parents := make([]externalapi.BlockLevelParents, len(dbBlockHeader.Parents))
	for i, dbBlockLevelParents := range dbBlockHeader.Parents {
		blockLevelParents, err := DbHashesToDomainHashes(dbBlockLevelParents)
		if err != nil {
			return nil, err
		}
		parents[i] = blockLevelParents
	}
	hashMerkleRoot, err := DbHashToDomainHash(dbBlockHeader.HashMerkleRoot)
	if err != nil {
		return nil, err
	}
	acceptedIDMerkleRoot, err := DbHashToDomainHash(dbBlockHeader.AcceptedIDMerkleRoot)
	if err != nil {
		return nil, err
	}
	utxoCommitment, err := DbHashToDomainHash(dbBlockHeader.UTXOCommitment)
	if err != nil {
		return nil, err
	}
	pruningPoint, err := DbHashToDomainHash(dbBlockHeader.PruningPoint)
	if err != nil {
		return nil, err
	}

	return blockheader.NewImmutableBlockHeader(
		uint16(dbBlockHeader.Version),
		parents,
		hashMerkleRoot,
		acceptedIDMerkleRoot,
		utxoCommitment,
		dbBlockHeader.TimeInMilliseconds,
		dbBlockHeader.Bits,
		dbBlockHeader.Nonce,
		dbBlockHeader.DAAScore,
		dbBlockHeader.BlueScore,
		new(big.Int).SetBytes(dbBlockHeader.BlueWork),
		pruningPoint,
	), nil
}
