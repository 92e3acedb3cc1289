package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// Multiset represents a secure hash of the UTXO set of a block,
// built incrementally by adding and removing serialized UTXO elements
type Multiset interface {
	Add(data []byte)
	Remove(data []byte)
	Hash() *externalapi.DomainHash
	Serialize() []byte
	Clone() Multiset
}
