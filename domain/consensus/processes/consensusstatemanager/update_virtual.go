package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/logger"
)

func (csm *consensusStateManager) resolveVirtual(stagingArea *model.StagingArea, tips []*externalapi.DomainHash) (
	*externalapi.SelectedChainPath, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "resolveVirtual")
	defer onEnd()

	oldVirtualSelectedParent, err := csm.virtualSelectedParent(stagingArea)
	if err != nil {
		return nil, err
	}

	log.Debugf("Picking virtual parents from %d tips", len(tips))
	virtualParents, err := csm.pickVirtualParents(stagingArea, tips)
	if err != nil {
		return nil, err
	}
	log.Debugf("Picked virtual parents: %s", virtualParents)

	err = csm.dagTopologyManager.SetParents(stagingArea, model.VirtualBlockHash, virtualParents)
	if err != nil {
		return nil, err
	}
	err = csm.ghostdagManager.GHOSTDAG(stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}

	newVirtualSelectedParent, err := csm.virtualSelectedParent(stagingArea)
	if err != nil {
		return nil, err
	}

	selectedParentChainChanges, err := csm.dagTraversalManager.CalculateChainPath(stagingArea, oldVirtualSelectedParent, newVirtualSelectedParent)
	if err != nil {
		return nil, err
	}
	log.Debugf("Virtual selected parent chain changes: %d removed, %d added",
		len(selectedParentChainChanges.Removed), len(selectedParentChainChanges.Added))

	if selectedParentChainChanges.IsEmpty() {
		return selectedParentChainChanges, nil
	}

	virtualUTXODiff, err := csm.chainChangesUTXODiff(stagingArea, selectedParentChainChanges)
	if err != nil {
		return nil, err
	}
	csm.consensusStateStore.StageVirtualUTXODiff(stagingArea, virtualUTXODiff)

	err = csm.virtualSelectedChainStore.Stage(csm.databaseContext, stagingArea, selectedParentChainChanges)
	if err != nil {
		return nil, err
	}

	return selectedParentChainChanges, nil
}

// chainChangesUTXODiff reverses the UTXO diffs of the removed chain blocks, highest
// first, then applies the diffs of the added chain blocks, lowest first
func (csm *consensusStateManager) chainChangesUTXODiff(stagingArea *model.StagingArea,
	chainChanges *externalapi.SelectedChainPath) (externalapi.UTXODiff, error) {

	diff := utxo.NewMutableUTXODiff()
	for _, removed := range chainChanges.Removed {
		removedDiff, err := csm.utxoDiffStore.UTXODiff(csm.databaseContext, stagingArea, removed)
		if err != nil {
			return nil, err
		}
		err = diff.WithDiffInPlace(removedDiff.Reversed())
		if err != nil {
			return nil, err
		}
	}
	for _, added := range chainChanges.Added {
		addedDiff, err := csm.utxoDiffStore.UTXODiff(csm.databaseContext, stagingArea, added)
		if err != nil {
			return nil, err
		}
		err = diff.WithDiffInPlace(addedDiff)
		if err != nil {
			return nil, err
		}
	}
	return diff.ToImmutable(), nil
}

// virtualSelectedParent returns nil if the virtual was never resolved
func (csm *consensusStateManager) virtualSelectedParent(stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	hasVirtualGHOSTDAGData, err := csm.ghostdagDataStore.Has(csm.databaseContext, stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}
	if !hasVirtualGHOSTDAGData {
		return nil, nil
	}

	virtualGHOSTDAGData, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}
	return virtualGHOSTDAGData.SelectedParent(), nil
}
