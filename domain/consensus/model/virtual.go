package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// VirtualBlockHash is a marker hash for the virtual block
var VirtualBlockHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
})

// VirtualGenesisBlockHash is a marker hash for the virtual genesis block. It stands in
// for every parent that is unknown to a node that started from a pruning point
// and is considered an ancestor of every block.
var VirtualGenesisBlockHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
})

// IsVirtualOrVirtualGenesis returns whether the given hash is one of the two marker hashes
func IsVirtualOrVirtualGenesis(blockHash *externalapi.DomainHash) bool {
	return blockHash.Equal(VirtualBlockHash) || blockHash.Equal(VirtualGenesisBlockHash)
}
