package blockprocessor

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/processes/blockprocessor/blocklogger"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/multiset"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/util/staging"
	"github.com/pkg/errors"
)

func (bp *blockProcessor) validateAndInsertBlock(stagingArea *model.StagingArea, block *externalapi.DomainBlock,
	updateVirtual bool) (*externalapi.VirtualChangeSet, error) {

	blockHash := consensushashing.BlockHash(block)
	onEnd := logger.LogAndMeasureExecutionTime(log, "validateAndInsertBlock")
	defer onEnd()

	if blockHash.Equal(bp.genesisHash) {
		return bp.insertGenesis(stagingArea, block)
	}

	err := bp.validateBlock(stagingArea, block)
	if err != nil {
		return nil, err
	}

	if isHeaderOnlyBlock(block) {
		bp.blockStatusStore.Stage(stagingArea, blockHash, externalapi.StatusHeaderOnly)
		err = staging.CommitAllChanges(bp.databaseContext, stagingArea)
		if err != nil {
			return nil, err
		}
		blocklogger.LogBlock(block)
		return &externalapi.VirtualChangeSet{
			VirtualSelectedParentChainChanges: &externalapi.SelectedChainPath{},
		}, nil
	}

	bp.blockStatusStore.Stage(stagingArea, blockHash, externalapi.StatusUTXOPendingVerification)
	selectedParentChainChanges, err := bp.consensusStateManager.AddBlock(stagingArea, blockHash, updateVirtual)
	if err != nil {
		return nil, err
	}

	virtualChangeSet := &externalapi.VirtualChangeSet{VirtualSelectedParentChainChanges: selectedParentChainChanges}
	if updateVirtual {
		virtualChangeSet, err = bp.updateVirtualState(stagingArea, selectedParentChainChanges, blockHash)
		if err != nil {
			return nil, err
		}
	}

	err = staging.CommitAllChanges(bp.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	log.Debugf("Block %s validated and inserted, the virtual selected parent chain changed by %d added and %d removed",
		blockHash, len(selectedParentChainChanges.Added), len(selectedParentChainChanges.Removed))
	blocklogger.LogBlock(block)
	return virtualChangeSet, nil
}

// insertGenesis bootstraps an empty consensus with the genesis block, whose state
// is valid by definition
func (bp *blockProcessor) insertGenesis(stagingArea *model.StagingArea, genesis *externalapi.DomainBlock) (
	*externalapi.VirtualChangeSet, error) {

	hasPruningPoint, err := bp.pruningStore.HasPruningPoint(bp.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	if hasPruningPoint {
		return nil, errors.Wrapf(ruleerrors.ErrGenesisOnInitializedConsensus,
			"cannot insert genesis %s into an initialized consensus", bp.genesisHash)
	}

	log.Infof("Inserting genesis %s", bp.genesisHash)
	bp.blockHeaderStore.Stage(stagingArea, bp.genesisHash, genesis.Header)
	bp.blockStore.Stage(stagingArea, bp.genesisHash, genesis)
	err = bp.blockValidator.ValidateHeaderInIsolation(stagingArea, bp.genesisHash)
	if err != nil {
		return nil, err
	}
	err = bp.blockValidator.ValidateBodyInIsolation(stagingArea, bp.genesisHash)
	if err != nil {
		return nil, err
	}

	err = bp.dagTopologyManager.SetParents(stagingArea, bp.genesisHash, nil)
	if err != nil {
		return nil, err
	}
	err = bp.ghostdagManager.GHOSTDAG(stagingArea, bp.genesisHash)
	if err != nil {
		return nil, err
	}

	err = bp.pruningStore.StagePruningPoint(bp.databaseContext, stagingArea, bp.genesisHash)
	if err != nil {
		return nil, err
	}
	bp.pruningStore.StagePruningPointUTXOSet(stagingArea, utxo.NewUTXOCollection(nil))
	bp.pruningSampleStore.Stage(stagingArea, bp.genesisHash, bp.genesisHash)
	bp.blockStatusStore.Stage(stagingArea, bp.genesisHash, externalapi.StatusUTXOValid)
	bp.utxoDiffStore.Stage(stagingArea, bp.genesisHash, utxo.NewMutableUTXODiff().ToImmutable())
	bp.multisetStore.Stage(stagingArea, bp.genesisHash, multiset.New())

	err = bp.headersSelectedTipManager.AddHeaderTip(stagingArea, bp.genesisHash)
	if err != nil {
		return nil, err
	}

	selectedParentChainChanges, err := bp.consensusStateManager.AddBlock(stagingArea, bp.genesisHash, true)
	if err != nil {
		return nil, err
	}
	virtualChangeSet, err := bp.updateVirtualState(stagingArea, selectedParentChainChanges, bp.genesisHash)
	if err != nil {
		return nil, err
	}

	err = staging.CommitAllChanges(bp.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	return virtualChangeSet, nil
}

// updateVirtualState moves the finality point and the pruning point after the virtual
// changed, and summarizes the change. blockHash is the block that caused the change,
// if any.
func (bp *blockProcessor) updateVirtualState(stagingArea *model.StagingArea,
	selectedParentChainChanges *externalapi.SelectedChainPath, blockHash *externalapi.DomainHash) (
	*externalapi.VirtualChangeSet, error) {

	err := bp.finalityManager.UpdateFinalityPoint(stagingArea)
	if err != nil {
		return nil, err
	}

	virtualChangeSet := &externalapi.VirtualChangeSet{VirtualSelectedParentChainChanges: selectedParentChainChanges}

	moved, previousPruningPoint, err := bp.pruningManager.UpdatePruningPointByVirtual(stagingArea)
	if err != nil {
		return nil, err
	}
	if moved {
		pruningPoint, err := bp.pruningStore.PruningPoint(bp.databaseContext, stagingArea)
		if err != nil {
			return nil, err
		}
		virtualChangeSet.PruningPointMoved = &externalapi.PruningPointMoved{
			PruningPoint:         pruningPoint,
			PreviousPruningPoint: previousPruningPoint,
		}
	}

	virtualGHOSTDAGData, err := bp.ghostdagDataStore.Get(bp.databaseContext, stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}
	virtualSelectedParent := virtualGHOSTDAGData.SelectedParent()
	virtualSelectedParentGHOSTDAGData, err := bp.ghostdagDataStore.Get(bp.databaseContext, stagingArea, virtualSelectedParent)
	if err != nil {
		return nil, err
	}
	virtualSelectedParentHeader, err := bp.blockHeaderStore.BlockHeader(bp.databaseContext, stagingArea, virtualSelectedParent)
	if err != nil {
		return nil, err
	}
	virtualParents, err := bp.dagTopologyManager.Parents(stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}
	virtualChangeSet.VirtualParents = virtualParents
	virtualChangeSet.VirtualSelectedParentBlueScore = virtualSelectedParentGHOSTDAGData.BlueScore()
	virtualChangeSet.VirtualDAAScore = virtualSelectedParentHeader.DAAScore() + uint64(len(virtualGHOSTDAGData.MergeSet()))

	if blockHash != nil {
		virtualChangeSet.FinalityConflict, err = bp.finalityConflict(stagingArea, blockHash, virtualSelectedParentGHOSTDAGData)
		if err != nil {
			return nil, err
		}
	}

	return virtualChangeSet, nil
}

// finalityConflict returns a FinalityConflict if blockHash carries more blue work than
// the virtual selected parent but was kept out of the chain because it violates finality
func (bp *blockProcessor) finalityConflict(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	virtualSelectedParentGHOSTDAGData *externalapi.BlockGHOSTDAGData) (*externalapi.FinalityConflict, error) {

	isViolatingFinality, err := bp.finalityManager.IsViolatingFinality(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if !isViolatingFinality {
		return nil, nil
	}

	blockGHOSTDAGData, err := bp.ghostdagDataStore.Get(bp.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if blockGHOSTDAGData.BlueWork().Cmp(virtualSelectedParentGHOSTDAGData.BlueWork()) <= 0 {
		return nil, nil
	}

	finalityPoint, err := bp.finalityManager.VirtualFinalityPoint(stagingArea)
	if err != nil {
		return nil, err
	}
	log.Warnf("Block %s violates finality point %s while carrying more blue work than the virtual selected parent",
		blockHash, finalityPoint)
	return &externalapi.FinalityConflict{
		ViolatingBlockHash: blockHash,
		FinalityPoint:      finalityPoint,
	}, nil
}

func isHeaderOnlyBlock(block *externalapi.DomainBlock) bool {
	return len(block.Transactions) == 0
}
