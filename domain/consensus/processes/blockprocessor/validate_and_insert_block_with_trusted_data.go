package blockprocessor

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/util/staging"
	"github.com/pkg/errors"
)

// validateAndInsertBlockWithTrustedData inserts a block of the pruning point anticone.
// Its past is unknown, so its GHOSTDAG data is taken as given, with everything below
// the known DAG replaced by the virtual genesis. The block never becomes a tip.
func (bp *blockProcessor) validateAndInsertBlockWithTrustedData(stagingArea *model.StagingArea,
	blockWithTrustedData *externalapi.BlockWithTrustedData) (*externalapi.VirtualChangeSet, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "validateAndInsertBlockWithTrustedData")
	defer onEnd()

	block := blockWithTrustedData.Block
	blockHash := consensushashing.BlockHash(block)
	if blockWithTrustedData.GHOSTDAGData == nil {
		return nil, errors.Errorf("block %s arrived without GHOSTDAG data", blockHash)
	}

	exists, err := bp.blockStatusStore.Exists(bp.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s already exists", blockHash)
	}

	bp.blockHeaderStore.Stage(stagingArea, blockHash, block.Header)
	err = bp.blockValidator.ValidateHeaderInIsolation(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	err = bp.blockValidator.ValidateProofOfWork(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	knownParents, err := bp.knownHashes(stagingArea, block.Header.DirectParents())
	if err != nil {
		return nil, err
	}
	if len(knownParents) == 0 {
		knownParents = []*externalapi.DomainHash{model.VirtualGenesisBlockHash}
	}
	err = bp.dagTopologyManager.SetParents(stagingArea, blockHash, knownParents)
	if err != nil {
		return nil, err
	}

	ghostdagData, err := bp.trimGHOSTDAGDataToKnownBlocks(stagingArea, blockWithTrustedData.GHOSTDAGData)
	if err != nil {
		return nil, err
	}
	bp.ghostdagDataStore.Stage(stagingArea, blockHash, ghostdagData)

	status := externalapi.StatusHeaderOnly
	if !isHeaderOnlyBlock(block) {
		bp.blockStore.Stage(stagingArea, blockHash, block)
		err = bp.blockValidator.ValidateBodyInIsolation(stagingArea, blockHash)
		if err != nil {
			return nil, err
		}
		status = externalapi.StatusUTXOPendingVerification
	}
	bp.blockStatusStore.Stage(stagingArea, blockHash, status)

	err = bp.pruningManager.StagePruningSample(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	err = bp.headersSelectedTipManager.AddHeaderTip(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	err = staging.CommitAllChanges(bp.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	log.Debugf("Inserted block %s with trusted data", blockHash)
	return &externalapi.VirtualChangeSet{
		VirtualSelectedParentChainChanges: &externalapi.SelectedChainPath{},
	}, nil
}

func (bp *blockProcessor) knownHashes(stagingArea *model.StagingArea, hashes []*externalapi.DomainHash) (
	[]*externalapi.DomainHash, error) {

	known := make([]*externalapi.DomainHash, 0, len(hashes))
	for _, hash := range hashes {
		hasGHOSTDAGData, err := bp.hasGHOSTDAGData(stagingArea, hash)
		if err != nil {
			return nil, err
		}
		if hasGHOSTDAGData {
			known = append(known, hash)
		}
	}
	return known, nil
}

func (bp *blockProcessor) hasGHOSTDAGData(stagingArea *model.StagingArea, hash *externalapi.DomainHash) (bool, error) {
	return bp.ghostdagDataStore.Has(bp.databaseContext, stagingArea, hash)
}

// trimGHOSTDAGDataToKnownBlocks replaces an unknown selected parent with the virtual
// genesis and drops unknown blocks from the merge set
func (bp *blockProcessor) trimGHOSTDAGDataToKnownBlocks(stagingArea *model.StagingArea,
	ghostdagData *externalapi.BlockGHOSTDAGData) (*externalapi.BlockGHOSTDAGData, error) {

	selectedParent := ghostdagData.SelectedParent()
	if selectedParent == nil {
		selectedParent = model.VirtualGenesisBlockHash
	} else {
		hasSelectedParent, err := bp.hasGHOSTDAGData(stagingArea, selectedParent)
		if err != nil {
			return nil, err
		}
		if !hasSelectedParent {
			selectedParent = model.VirtualGenesisBlockHash
		}
	}

	mergeSetBlues, err := bp.knownOrSelectedParent(stagingArea, ghostdagData.MergeSetBlues(), selectedParent)
	if err != nil {
		return nil, err
	}
	mergeSetReds, err := bp.knownHashes(stagingArea, ghostdagData.MergeSetReds())
	if err != nil {
		return nil, err
	}

	return externalapi.NewBlockGHOSTDAGData(
		ghostdagData.BlueScore(),
		ghostdagData.BlueWork(),
		selectedParent,
		mergeSetBlues,
		mergeSetReds,
		ghostdagData.BluesAnticoneSizes(),
	), nil
}

// knownOrSelectedParent filters hashes down to blocks with GHOSTDAG data, keeping
// selectedParent as the first entry
func (bp *blockProcessor) knownOrSelectedParent(stagingArea *model.StagingArea, hashes []*externalapi.DomainHash,
	selectedParent *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	filtered := []*externalapi.DomainHash{selectedParent}
	for _, hash := range hashes {
		if hash.Equal(selectedParent) {
			continue
		}
		hasGHOSTDAGData, err := bp.hasGHOSTDAGData(stagingArea, hash)
		if err != nil {
			return nil, err
		}
		if hasGHOSTDAGData {
			filtered = append(filtered, hash)
		}
	}
	return filtered, nil
}
