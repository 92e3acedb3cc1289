package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// BlockIterator is an iterator over blocks according to some order.
type BlockIterator interface {
	First() bool
	Next() bool
	Get() (*externalapi.DomainHash, error)
	Close() error
}

// DAGTraversalManager exposes methods for traversing blocks
// in the DAG
type DAGTraversalManager interface {
	SelectedParentIterator(stagingArea *StagingArea, highHash *externalapi.DomainHash) BlockIterator
	LowestChainBlockAboveOrEqualToBlueScore(stagingArea *StagingArea, highHash *externalapi.DomainHash, blueScore uint64) (*externalapi.DomainHash, error)
	Anticone(stagingArea *StagingArea, blockHash *externalapi.DomainHash, contextHash *externalapi.DomainHash, maxBlocks uint64) ([]*externalapi.DomainHash, error)
	AnticoneFromVirtualPOV(stagingArea *StagingArea, blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)
	SelectedChainBetween(stagingArea *StagingArea, lowHash, highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)
	CalculateChainPath(stagingArea *StagingArea, fromBlockHash, toBlockHash *externalapi.DomainHash) (*externalapi.SelectedChainPath, error)
}
