package hashes

import (
	"hash"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	transcationHashDomain = "TransactionHash"
	transcationIDDomain   = "TransactionID"
	blockDomain           = "BlockHash"
	proofOfWorkDomain     = "ProofOfWorkHash"
	merkleBranchDomain    = "MerkleBranchHash"
)

// HashWriter is used to incrementally hash data without concatenating all of the data to a single buffer
// it exposes an io.Writer api and a Finalize function to get the resulting hash.
// The used hash function is blake2b keyed with a domain separation string.
// This can only be created via one of the domain separated constructors
type HashWriter struct {
	hash.Hash
}

func newDomainHashWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}

// NewTransactionHashWriter returns a new HashWriter used for transaction hashes
func NewTransactionHashWriter() HashWriter {
	return newDomainHashWriter(transcationHashDomain)
}

// NewTransactionIDWriter returns a new HashWriter used for transaction IDs
func NewTransactionIDWriter() HashWriter {
	return newDomainHashWriter(transcationIDDomain)
}

// NewBlockHashWriter returns a new HashWriter used for hashing blocks
func NewBlockHashWriter() HashWriter {
	return newDomainHashWriter(blockDomain)
}

// NewPoWHashWriter returns a new HashWriter used for the PoW function
func NewPoWHashWriter() HashWriter {
	return newDomainHashWriter(proofOfWorkDomain)
}

// NewMerkleBranchHashWriter returns a new HashWriter used for a merkle tree branch
func NewMerkleBranchHashWriter() HashWriter {
	return newDomainHashWriter(merkleBranchDomain)
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var sum [externalapi.DomainHashSize]byte
	copy(sum[:], h.Sum(sum[:0]))
	return externalapi.NewDomainHashFromByteArray(&sum)
}
