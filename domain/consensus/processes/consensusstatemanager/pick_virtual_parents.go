package consensusstatemanager

import (
	"sort"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashset"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/logger"
)

func (csm *consensusStateManager) pickVirtualParents(stagingArea *model.StagingArea,
	tips []*externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "pickVirtualParents")
	defer onEnd()

	candidates, err := csm.sortByBlueWorkDescending(stagingArea, tips)
	if err != nil {
		return nil, err
	}

	virtualSelectedParent, candidates, err := csm.selectVirtualSelectedParent(stagingArea, candidates)
	if err != nil {
		return nil, err
	}
	log.Debugf("The selected parent of the virtual is: %s", virtualSelectedParent)

	finalityPoint, err := csm.finalityManager.VirtualFinalityPoint(stagingArea)
	if err != nil {
		return nil, err
	}

	selectedVirtualParents := []*externalapi.DomainHash{virtualSelectedParent}
	for _, candidate := range candidates {
		if len(selectedVirtualParents) >= csm.maxBlockParents {
			break
		}

		canBeParent, err := csm.canBeNonSelectedVirtualParent(stagingArea, candidate, finalityPoint)
		if err != nil {
			return nil, err
		}
		if !canBeParent {
			continue
		}

		isWithinMergeSetLimit, err := csm.isWithinMergeSetSizeLimit(stagingArea,
			append(externalapi.CloneHashes(selectedVirtualParents), candidate))
		if err != nil {
			return nil, err
		}
		if !isWithinMergeSetLimit {
			log.Debugf("Block %s would exceed the virtual merge set size limit", candidate)
			continue
		}

		selectedVirtualParents = append(selectedVirtualParents, candidate)
		log.Tracef("Added block %s to the virtual parents set", candidate)
	}

	return selectedVirtualParents, nil
}

// selectVirtualSelectedParent returns the candidate with the highest blue work whose
// status resolves to UTXOValid and whose selected chain contains the finality point.
// Disqualified candidates are replaced by their selected parents. The remaining
// candidates are returned, best first.
func (csm *consensusStateManager) selectVirtualSelectedParent(stagingArea *model.StagingArea,
	candidates []*externalapi.DomainHash) (*externalapi.DomainHash, []*externalapi.DomainHash, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "selectVirtualSelectedParent")
	defer onEnd()

	finalityPoint, err := csm.finalityManager.VirtualFinalityPoint(stagingArea)
	if err != nil {
		return nil, nil, err
	}

	visited := hashset.NewFromSlice(candidates...)
	for len(candidates) > 0 {
		candidate := candidates[0]
		candidates = candidates[1:]

		log.Debugf("Checking block %s for selected parent eligibility", candidate)
		isFinalityPointInChain, err := csm.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, finalityPoint, candidate)
		if err != nil {
			return nil, nil, err
		}
		if !isFinalityPointInChain {
			log.Warnf("Block %s does not have the finality point %s in its selected chain. Skipping it",
				candidate, finalityPoint)
			continue
		}

		status, err := csm.ResolveBlockStatus(stagingArea, candidate)
		if err != nil {
			return nil, nil, err
		}
		if status == externalapi.StatusUTXOValid {
			log.Debugf("Block %s is valid. Returning it as the selected parent", candidate)
			return candidate, candidates, nil
		}

		log.Debugf("Block %s has status %s. Replacing it with its selected parent", candidate, status)
		candidateGHOSTDAGData, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, candidate)
		if err != nil {
			return nil, nil, err
		}
		selectedParent := candidateGHOSTDAGData.SelectedParent()
		if selectedParent == nil || model.IsVirtualOrVirtualGenesis(selectedParent) || visited.Contains(selectedParent) {
			continue
		}
		visited.Add(selectedParent)
		candidates, err = csm.sortByBlueWorkDescending(stagingArea, append(candidates, selectedParent))
		if err != nil {
			return nil, nil, err
		}
	}

	return nil, nil, model.NewInvariantViolationError(model.VirtualBlockHash, "virtual has no valid parent candidates")
}

// canBeNonSelectedVirtualParent filters out disqualified blocks and blocks that are
// not in the future of the finality point, since merging them would break the
// bounded merge depth of the virtual.
func (csm *consensusStateManager) canBeNonSelectedVirtualParent(stagingArea *model.StagingArea,
	candidate, finalityPoint *externalapi.DomainHash) (bool, error) {

	status, err := csm.blockStatusStore.Get(csm.databaseContext, stagingArea, candidate)
	if err != nil {
		return false, err
	}
	if status == externalapi.StatusDisqualifiedFromChain || status == externalapi.StatusInvalid {
		return false, nil
	}

	if candidate.Equal(finalityPoint) {
		return true, nil
	}
	return csm.dagTopologyManager.IsAncestorOf(stagingArea, finalityPoint, candidate)
}

func (csm *consensusStateManager) isWithinMergeSetSizeLimit(stagingArea *model.StagingArea,
	parents []*externalapi.DomainHash) (bool, error) {

	ghostdagData, err := csm.ghostdagManager.GHOSTDAGForParents(stagingArea, parents, 0)
	if err != nil {
		return false, err
	}
	return uint64(len(ghostdagData.MergeSet())) <= csm.mergeSetSizeLimit, nil
}

func (csm *consensusStateManager) sortByBlueWorkDescending(stagingArea *model.StagingArea,
	blockHashes []*externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	ghostdagDataByHash := make(map[externalapi.DomainHash]*externalapi.BlockGHOSTDAGData, len(blockHashes))
	for _, blockHash := range blockHashes {
		ghostdagData, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, blockHash)
		if err != nil {
			if database.IsNotFoundError(err) {
				return nil, model.NewInvariantViolationError(blockHash, "missing GHOSTDAG data of a tip")
			}
			return nil, err
		}
		ghostdagDataByHash[*blockHash] = ghostdagData
	}

	sorted := externalapi.CloneHashes(blockHashes)
	sort.Slice(sorted, func(i, j int) bool {
		return csm.ghostdagManager.Less(sorted[j], ghostdagDataByHash[*sorted[j]],
			sorted[i], ghostdagDataByHash[*sorted[i]])
	})
	return sorted, nil
}
