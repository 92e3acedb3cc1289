package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
)

// consensusStateManager manages the node's consensus state
type consensusStateManager struct {
	maxBlockParents   int
	mergeSetSizeLimit uint64
	databaseContext   model.DBReader

	ghostdagManager     model.GHOSTDAGManager
	dagTopologyManager  model.DAGTopologyManager
	dagTraversalManager model.DAGTraversalManager
	finalityManager     model.FinalityManager

	blockStatusStore          model.BlockStatusStore
	ghostdagDataStore         model.GHOSTDAGDataStore
	consensusStateStore       model.ConsensusStateStore
	multisetStore             model.MultisetStore
	blockStore                model.BlockStore
	blockHeaderStore          model.BlockHeaderStore
	utxoDiffStore             model.UTXODiffStore
	virtualSelectedChainStore model.SelectedChainStore
	pruningStore              model.PruningStore
}

// New instantiates a new ConsensusStateManager
func New(
	databaseContext model.DBReader,
	maxBlockParents int,
	mergeSetSizeLimit uint64,

	ghostdagManager model.GHOSTDAGManager,
	dagTopologyManager model.DAGTopologyManager,
	dagTraversalManager model.DAGTraversalManager,
	finalityManager model.FinalityManager,

	blockStatusStore model.BlockStatusStore,
	ghostdagDataStore model.GHOSTDAGDataStore,
	consensusStateStore model.ConsensusStateStore,
	multisetStore model.MultisetStore,
	blockStore model.BlockStore,
	blockHeaderStore model.BlockHeaderStore,
	utxoDiffStore model.UTXODiffStore,
	virtualSelectedChainStore model.SelectedChainStore,
	pruningStore model.PruningStore) model.ConsensusStateManager {

	return &consensusStateManager{
		maxBlockParents:   maxBlockParents,
		mergeSetSizeLimit: mergeSetSizeLimit,
		databaseContext:   databaseContext,

		ghostdagManager:     ghostdagManager,
		dagTopologyManager:  dagTopologyManager,
		dagTraversalManager: dagTraversalManager,
		finalityManager:     finalityManager,

		blockStatusStore:          blockStatusStore,
		ghostdagDataStore:         ghostdagDataStore,
		consensusStateStore:       consensusStateStore,
		multisetStore:             multisetStore,
		blockStore:                blockStore,
		blockHeaderStore:          blockHeaderStore,
		utxoDiffStore:             utxoDiffStore,
		virtualSelectedChainStore: virtualSelectedChainStore,
		pruningStore:              pruningStore,
	}
}
