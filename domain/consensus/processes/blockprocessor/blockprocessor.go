package blockprocessor

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// blockProcessor is responsible for processing incoming blocks
type blockProcessor struct {
	genesisHash     *externalapi.DomainHash
	databaseContext model.DBManager

	consensusStateManager     model.ConsensusStateManager
	pruningManager            model.PruningManager
	blockValidator            model.BlockValidator
	dagTopologyManager        model.DAGTopologyManager
	ghostdagManager           model.GHOSTDAGManager
	finalityManager           model.FinalityManager
	headersSelectedTipManager model.HeadersSelectedTipManager

	blockStore          model.BlockStore
	blockStatusStore    model.BlockStatusStore
	blockHeaderStore    model.BlockHeaderStore
	ghostdagDataStore   model.GHOSTDAGDataStore
	consensusStateStore model.ConsensusStateStore
	pruningStore        model.PruningStore
	pruningSampleStore  model.PruningSampleStore
	utxoDiffStore       model.UTXODiffStore
	multisetStore       model.MultisetStore
}

// New instantiates a new BlockProcessor
func New(
	genesisHash *externalapi.DomainHash,
	databaseContext model.DBManager,

	consensusStateManager model.ConsensusStateManager,
	pruningManager model.PruningManager,
	blockValidator model.BlockValidator,
	dagTopologyManager model.DAGTopologyManager,
	ghostdagManager model.GHOSTDAGManager,
	finalityManager model.FinalityManager,
	headersSelectedTipManager model.HeadersSelectedTipManager,

	blockStore model.BlockStore,
	blockStatusStore model.BlockStatusStore,
	blockHeaderStore model.BlockHeaderStore,
	ghostdagDataStore model.GHOSTDAGDataStore,
	consensusStateStore model.ConsensusStateStore,
	pruningStore model.PruningStore,
	pruningSampleStore model.PruningSampleStore,
	utxoDiffStore model.UTXODiffStore,
	multisetStore model.MultisetStore,
) model.BlockProcessor {

	return &blockProcessor{
		genesisHash:     genesisHash,
		databaseContext: databaseContext,

		consensusStateManager:     consensusStateManager,
		pruningManager:            pruningManager,
		blockValidator:            blockValidator,
		dagTopologyManager:        dagTopologyManager,
		ghostdagManager:           ghostdagManager,
		finalityManager:           finalityManager,
		headersSelectedTipManager: headersSelectedTipManager,

		blockStore:          blockStore,
		blockStatusStore:    blockStatusStore,
		blockHeaderStore:    blockHeaderStore,
		ghostdagDataStore:   ghostdagDataStore,
		consensusStateStore: consensusStateStore,
		pruningStore:        pruningStore,
		pruningSampleStore:  pruningSampleStore,
		utxoDiffStore:       utxoDiffStore,
		multisetStore:       multisetStore,
	}
}

// ValidateAndInsertBlock validates the given block and, if valid, applies it
// to the current state
func (bp *blockProcessor) ValidateAndInsertBlock(block *externalapi.DomainBlock, updateVirtual bool) (
	*externalapi.VirtualChangeSet, error) {

	stagingArea := model.NewStagingArea()
	return bp.validateAndInsertBlock(stagingArea, block, updateVirtual)
}

// ValidateAndInsertImportedPruningPoint makes newPruningPoint, whose header is already
// known, the pruning point, using the UTXO set imported for it
func (bp *blockProcessor) ValidateAndInsertImportedPruningPoint(newPruningPoint *externalapi.DomainBlock) error {
	stagingArea := model.NewStagingArea()
	return bp.validateAndInsertImportedPruningPoint(stagingArea, newPruningPoint)
}

// ValidateAndInsertBlockWithTrustedData inserts a block whose past is unknown, trusting
// the GHOSTDAG data it came with
func (bp *blockProcessor) ValidateAndInsertBlockWithTrustedData(block *externalapi.BlockWithTrustedData) (
	*externalapi.VirtualChangeSet, error) {

	stagingArea := model.NewStagingArea()
	return bp.validateAndInsertBlockWithTrustedData(stagingArea, block)
}

// ResolveVirtual re-picks the virtual parents from the current tips
func (bp *blockProcessor) ResolveVirtual() (*externalapi.VirtualChangeSet, error) {
	stagingArea := model.NewStagingArea()
	return bp.resolveVirtual(stagingArea)
}
