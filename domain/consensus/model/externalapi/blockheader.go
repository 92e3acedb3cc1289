package externalapi

import "math/big"

// BaseBlockHeader represents the header part of a block
type BaseBlockHeader interface {
	Version() uint16
	Parents() []BlockLevelParents
	ParentsAtLevel(level int) BlockLevelParents
	DirectParents() BlockLevelParents
	HashMerkleRoot() *DomainHash
	AcceptedIDMerkleRoot() *DomainHash
	UTXOCommitment() *DomainHash
	TimeInMilliseconds() int64
	Bits() uint32
	Nonce() uint64
	DAAScore() uint64
	BlueScore() uint64
	BlueWork() *big.Int
	PruningPoint() *DomainHash
	Equal(other BaseBlockHeader) bool
}

// BlockHeader represents an immutable block header.
type BlockHeader interface {
	BaseBlockHeader
	ToMutable() MutableBlockHeader
}

// MutableBlockHeader represents a block header that can be mutated, but only
// the fields that are relevant to mining (Nonce and TimeInMilliseconds).
type MutableBlockHeader interface {
	BaseBlockHeader
	ToImmutable() BlockHeader
	SetNonce(nonce uint64)
	SetTimeInMilliseconds(timeInMilliseconds int64)
}
