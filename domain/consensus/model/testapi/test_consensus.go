package testapi

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/dagconfig"
)

// TestConsensus wraps the Consensus interface with some methods that are needed by tests only
type TestConsensus interface {
	externalapi.Consensus

	DAGParams() *dagconfig.Params
	DatabaseContext() model.DBManager

	BuildBlockWithParents(parentHashes []*externalapi.DomainHash, coinbaseData *externalapi.DomainCoinbaseData,
		transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error)

	// AddBlock builds a block with given information, solves it, and adds to the DAG.
	// Returns the hash of the added block
	AddBlock(parentHashes []*externalapi.DomainHash, coinbaseData *externalapi.DomainCoinbaseData,
		transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, *externalapi.VirtualChangeSet, error)

	// AddHeader builds a block like AddBlock does, but inserts its header only
	AddHeader(parentHashes []*externalapi.DomainHash, coinbaseData *externalapi.DomainCoinbaseData,
		transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, error)

	BlockHeaderStore() model.BlockHeaderStore
	BlockRelationStore() model.BlockRelationStore
	BlockStatusStore() model.BlockStatusStore
	BlockStore() model.BlockStore
	ConsensusStateStore() model.ConsensusStateStore
	FinalityStore() model.FinalityStore
	GHOSTDAGDataStore() model.GHOSTDAGDataStore
	HeadersSelectedChainStore() model.SelectedChainStore
	MultisetStore() model.MultisetStore
	PruningSampleStore() model.PruningSampleStore
	PruningStore() model.PruningStore
	UTXODiffStore() model.UTXODiffStore
	VirtualSelectedChainStore() model.SelectedChainStore

	BlockBuilder() model.BlockBuilder
	BlockProcessor() model.BlockProcessor
	BlockValidator() model.BlockValidator
	ConsensusStateManager() model.ConsensusStateManager
	DAGTopologyManager() model.DAGTopologyManager
	DAGTraversalManager() model.DAGTraversalManager
	FinalityManager() model.FinalityManager
	GHOSTDAGManager() model.GHOSTDAGManager
	HeadersSelectedTipManager() model.HeadersSelectedTipManager
	PruningManager() model.PruningManager
	PruningProofManager() model.PruningProofManager
	SyncManager() model.SyncManager
}
