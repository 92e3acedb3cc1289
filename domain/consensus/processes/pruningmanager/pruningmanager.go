package pruningmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// pruningManager resolves and manages the current pruning point
type pruningManager struct {
	databaseContext model.DBManager

	dagTraversalManager   model.DAGTraversalManager
	dagTopologyManager    model.DAGTopologyManager
	consensusStateManager model.ConsensusStateManager

	consensusStateStore model.ConsensusStateStore
	ghostdagDataStore   model.GHOSTDAGDataStore
	pruningStore        model.PruningStore
	pruningSampleStore  model.PruningSampleStore
	blockStatusStore    model.BlockStatusStore
	blockStore          model.BlockStore
	blockHeaderStore    model.BlockHeaderStore
	utxoDiffStore       model.UTXODiffStore
	multisetStore       model.MultisetStore

	genesisHash   *externalapi.DomainHash
	finalityDepth uint64
	pruningDepth  uint64
}

// New instantiates a new PruningManager
func New(
	databaseContext model.DBManager,

	dagTraversalManager model.DAGTraversalManager,
	dagTopologyManager model.DAGTopologyManager,
	consensusStateManager model.ConsensusStateManager,

	consensusStateStore model.ConsensusStateStore,
	ghostdagDataStore model.GHOSTDAGDataStore,
	pruningStore model.PruningStore,
	pruningSampleStore model.PruningSampleStore,
	blockStatusStore model.BlockStatusStore,
	blockStore model.BlockStore,
	blockHeaderStore model.BlockHeaderStore,
	utxoDiffStore model.UTXODiffStore,
	multisetStore model.MultisetStore,

	genesisHash *externalapi.DomainHash,
	finalityDepth uint64,
	pruningDepth uint64,
) model.PruningManager {

	return &pruningManager{
		databaseContext:       databaseContext,
		dagTraversalManager:   dagTraversalManager,
		dagTopologyManager:    dagTopologyManager,
		consensusStateManager: consensusStateManager,

		consensusStateStore: consensusStateStore,
		ghostdagDataStore:   ghostdagDataStore,
		pruningStore:        pruningStore,
		pruningSampleStore:  pruningSampleStore,
		blockStatusStore:    blockStatusStore,
		blockStore:          blockStore,
		blockHeaderStore:    blockHeaderStore,
		utxoDiffStore:       utxoDiffStore,
		multisetStore:       multisetStore,

		genesisHash:   genesisHash,
		finalityDepth: finalityDepth,
		pruningDepth:  pruningDepth,
	}
}

func (pm *pruningManager) finalityScore(blueScore uint64) uint64 {
	return blueScore / pm.finalityDepth
}
