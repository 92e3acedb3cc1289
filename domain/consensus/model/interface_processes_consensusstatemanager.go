package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// ConsensusStateManager manages the node's consensus state
type ConsensusStateManager interface {
	AddBlock(stagingArea *StagingArea, blockHash *externalapi.DomainHash, updateVirtual bool) (*externalapi.SelectedChainPath, error)
	ResolveVirtual(stagingArea *StagingArea) (*externalapi.SelectedChainPath, error)
	PopulateTransactionWithUTXOEntries(stagingArea *StagingArea, transaction *externalapi.DomainTransaction) error
	ImportPruningPoint(stagingArea *StagingArea, newPruningPoint *externalapi.DomainBlock) error
	RestorePastUTXOSetIterator(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (externalapi.ReadOnlyUTXOSetIterator, error)
	CalculatePastUTXOAndAcceptanceData(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (
		externalapi.UTXODiff, []*externalapi.DomainTransactionID, Multiset, error)
	GetVirtualSelectedParentChainFromBlock(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.SelectedChainPath, error)
	ResolveFinalityConflict(stagingArea *StagingArea, blockHash *externalapi.DomainHash) error
	ResolveBlockStatus(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (externalapi.BlockStatus, error)
}
