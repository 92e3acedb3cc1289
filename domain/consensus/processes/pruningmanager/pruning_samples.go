package pruningmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

// StagePruningSample records the latest pruning sample on the selected chain of blockHash.
// A block is a pruning sample when its finality score is higher than its selected parent's.
// Blocks whose selected chain is only known through trusted data get no sample, except
// for the pruning point itself and the blocks above it.
func (pm *pruningManager) StagePruningSample(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	ghostdagData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	selectedParent := ghostdagData.SelectedParent()
	if selectedParent == nil {
		pm.pruningSampleStore.Stage(stagingArea, blockHash, blockHash)
		return nil
	}

	var selectedParentSample *externalapi.DomainHash
	if !selectedParent.Equal(model.VirtualGenesisBlockHash) {
		selectedParentSample, err = pm.resolvePruningSample(stagingArea, selectedParent)
		if err != nil {
			return err
		}
	}
	if selectedParentSample == nil {
		isPruningPoint, err := pm.isCurrentPruningPoint(stagingArea, blockHash)
		if err != nil {
			return err
		}
		if isPruningPoint {
			pm.pruningSampleStore.Stage(stagingArea, blockHash, blockHash)
		}
		return nil
	}

	sample, err := pm.pruningSampleFromSelectedParent(stagingArea, blockHash, ghostdagData, selectedParentSample)
	if err != nil {
		return err
	}
	pm.pruningSampleStore.Stage(stagingArea, blockHash, sample)
	return nil
}

func (pm *pruningManager) pruningSampleFromSelectedParent(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, ghostdagData *externalapi.BlockGHOSTDAGData,
	selectedParentSample *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	selectedParentGHOSTDAGData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, ghostdagData.SelectedParent())
	if err != nil {
		return nil, err
	}
	if pm.finalityScore(ghostdagData.BlueScore()) > pm.finalityScore(selectedParentGHOSTDAGData.BlueScore()) {
		log.Tracef("Block %s is a pruning sample", blockHash)
		return blockHash, nil
	}
	return selectedParentSample, nil
}

// resolvePruningSample returns the pruning sample of blockHash. Chain blocks that
// were inserted before their chain reached a sampled block, such as headers synced
// above a pruning point before it was imported, are sampled on the way. It returns
// nil if no block on the selected chain of blockHash has a sample.
func (pm *pruningManager) resolvePruningSample(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	var unsampled []*externalapi.DomainHash
	var sample *externalapi.DomainHash
	current := blockHash
	for {
		currentSample, err := pm.pruningSampleStore.PruningSample(pm.databaseContext, stagingArea, current)
		if err == nil {
			sample = currentSample
			break
		}
		if !database.IsNotFoundError(err) {
			return nil, err
		}

		isPruningPoint, err := pm.isCurrentPruningPoint(stagingArea, current)
		if err != nil {
			return nil, err
		}
		if isPruningPoint {
			pm.pruningSampleStore.Stage(stagingArea, current, current)
			sample = current
			break
		}

		currentGHOSTDAGData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}
		selectedParent := currentGHOSTDAGData.SelectedParent()
		if selectedParent == nil || selectedParent.Equal(model.VirtualGenesisBlockHash) {
			return nil, nil
		}
		unsampled = append(unsampled, current)
		current = selectedParent
	}

	for i := len(unsampled) - 1; i >= 0; i-- {
		ghostdagData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, unsampled[i])
		if err != nil {
			return nil, err
		}
		sample, err = pm.pruningSampleFromSelectedParent(stagingArea, unsampled[i], ghostdagData, sample)
		if err != nil {
			return nil, err
		}
		pm.pruningSampleStore.Stage(stagingArea, unsampled[i], sample)
	}
	return sample, nil
}

// ExpectedHeaderPruningPoint returns the pruning point the header of blockHash must commit
// to. isTrusted is true when the answer lies below history that is only known through
// trusted data, in which case the header cannot be checked.
func (pm *pruningManager) ExpectedHeaderPruningPoint(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (
	expected *externalapi.DomainHash, isTrusted bool, err error) {

	ghostdagData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, false, err
	}
	return pm.expectedPruningPointFromSelectedParent(stagingArea, ghostdagData.SelectedParent())
}

// expectedPruningPointFromSelectedParent returns the latest pruning sample on the selected
// chain of selectedParent that is at least pruningDepth below it
func (pm *pruningManager) expectedPruningPointFromSelectedParent(stagingArea *model.StagingArea,
	selectedParent *externalapi.DomainHash) (expected *externalapi.DomainHash, isTrusted bool, err error) {

	if selectedParent == nil {
		return pm.genesisHash, false, nil
	}
	if selectedParent.Equal(model.VirtualGenesisBlockHash) {
		return nil, true, nil
	}

	selectedParentGHOSTDAGData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, selectedParent)
	if err != nil {
		return nil, false, err
	}
	if selectedParentGHOSTDAGData.BlueScore() < pm.pruningDepth {
		return pm.genesisHash, false, nil
	}

	current, err := pm.resolvePruningSample(stagingArea, selectedParent)
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, true, nil
	}
	for {
		currentGHOSTDAGData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, false, err
		}
		if selectedParentGHOSTDAGData.BlueScore()-currentGHOSTDAGData.BlueScore() >= pm.pruningDepth {
			return current, false, nil
		}
		if current.Equal(pm.genesisHash) {
			return pm.genesisHash, false, nil
		}

		currentSelectedParent := currentGHOSTDAGData.SelectedParent()
		if currentSelectedParent == nil || currentSelectedParent.Equal(model.VirtualGenesisBlockHash) {
			return nil, true, nil
		}
		current, err = pm.resolvePruningSample(stagingArea, currentSelectedParent)
		if err != nil {
			return nil, false, err
		}
		if current == nil {
			return nil, true, nil
		}
	}
}

// IsValidPruningPoint returns whether blockHash could serve as a pruning point for the
// current headers selected tip: it must be a pruning sample in its selected chain, at
// least pruningDepth below it
func (pm *pruningManager) IsValidPruningPoint(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (bool, error) {
	if blockHash.Equal(pm.genesisHash) {
		return true, nil
	}

	isPruningPoint, err := pm.isCurrentPruningPoint(stagingArea, blockHash)
	if err != nil {
		return false, err
	}
	if isPruningPoint {
		return true, nil
	}

	headersSelectedTip, err := pm.consensusStateStore.HeadersSelectedTip(pm.databaseContext, stagingArea)
	if err != nil {
		return false, err
	}
	isInSelectedChain, err := pm.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, blockHash, headersSelectedTip)
	if err != nil {
		return false, err
	}
	if !isInSelectedChain {
		return false, nil
	}

	ghostdagData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return false, err
	}
	headersSelectedTipGHOSTDAGData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, headersSelectedTip)
	if err != nil {
		return false, err
	}
	if headersSelectedTipGHOSTDAGData.BlueScore()-ghostdagData.BlueScore() < pm.pruningDepth {
		return false, nil
	}

	sample, err := pm.pruningSampleStore.PruningSample(pm.databaseContext, stagingArea, blockHash)
	if err != nil {
		if database.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return sample.Equal(blockHash), nil
}

func (pm *pruningManager) isCurrentPruningPoint(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (bool, error) {
	hasPruningPoint, err := pm.pruningStore.HasPruningPoint(pm.databaseContext, stagingArea)
	if err != nil {
		return false, err
	}
	if !hasPruningPoint {
		return false, nil
	}
	pruningPoint, err := pm.pruningStore.PruningPoint(pm.databaseContext, stagingArea)
	if err != nil {
		return false, err
	}
	return pruningPoint.Equal(blockHash), nil
}
