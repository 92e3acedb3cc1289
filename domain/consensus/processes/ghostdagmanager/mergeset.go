package ghostdagmanager

import (
	"sort"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashset"
)

// mergeSetWithoutSelectedParent returns the blocks in the past of blockParents (parents
// included) that are not in the past of selectedParent, sorted ascending by Less
func (gm *ghostdagManager) mergeSetWithoutSelectedParent(stagingArea *model.StagingArea,
	selectedParent *externalapi.DomainHash, blockParents []*externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	mergeSetMap := hashset.New()
	mergeSetSlice := make([]*externalapi.DomainHash, 0, gm.k)
	selectedParentPast := hashset.New()
	queue := []*externalapi.DomainHash{}

	// Queueing all parents (other than the selected parent itself) for processing.
	for _, parent := range blockParents {
		if parent.Equal(selectedParent) {
			continue
		}
		mergeSetMap.Add(parent)
		mergeSetSlice = append(mergeSetSlice, parent)
		queue = append(queue, parent)
	}

	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]

		// For each parent of the current block we check whether it is in the past of the selected parent. If not,
		// we add it to the resulting merge-set and queue it for further processing.
		currentParents, err := gm.dagTopologyManager.Parents(stagingArea, current)
		if err != nil {
			return nil, err
		}
		for _, parent := range currentParents {
			if mergeSetMap.Contains(parent) || selectedParentPast.Contains(parent) {
				continue
			}
			if parent.Equal(model.VirtualGenesisBlockHash) || parent.Equal(selectedParent) {
				selectedParentPast.Add(parent)
				continue
			}

			isAncestorOfSelectedParent, err := gm.dagTopologyManager.IsAncestorOf(stagingArea, parent, selectedParent)
			if err != nil {
				return nil, err
			}
			if isAncestorOfSelectedParent {
				selectedParentPast.Add(parent)
				continue
			}

			mergeSetMap.Add(parent)
			mergeSetSlice = append(mergeSetSlice, parent)
			queue = append(queue, parent)
		}
	}

	err := gm.sortMergeSet(stagingArea, mergeSetSlice)
	if err != nil {
		return nil, err
	}
	return mergeSetSlice, nil
}

func (gm *ghostdagManager) sortMergeSet(stagingArea *model.StagingArea, mergeSetSlice []*externalapi.DomainHash) error {
	ghostdagDataByHash := make(map[externalapi.DomainHash]*externalapi.BlockGHOSTDAGData, len(mergeSetSlice))
	for _, hash := range mergeSetSlice {
		ghostdagData, err := gm.ghostdagData(stagingArea, hash)
		if err != nil {
			return err
		}
		ghostdagDataByHash[*hash] = ghostdagData
	}
	sort.Slice(mergeSetSlice, func(i, j int) bool {
		return gm.Less(mergeSetSlice[i], ghostdagDataByHash[*mergeSetSlice[i]],
			mergeSetSlice[j], ghostdagDataByHash[*mergeSetSlice[j]])
	})
	return nil
}

// GetSortedMergeSet returns the merge set of current: its selected parent first,
// then the rest of the merge set ascending by blue work with the hash as tie-breaker
func (gm *ghostdagManager) GetSortedMergeSet(stagingArea *model.StagingArea,
	current *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	currentGHOSTDAGData, err := gm.ghostdagData(stagingArea, current)
	if err != nil {
		return nil, err
	}
	selectedParent := currentGHOSTDAGData.SelectedParent()
	if selectedParent == nil {
		return []*externalapi.DomainHash{}, nil
	}

	rest := make([]*externalapi.DomainHash, 0, len(currentGHOSTDAGData.MergeSetBlues())+len(currentGHOSTDAGData.MergeSetReds()))
	for _, hash := range currentGHOSTDAGData.MergeSet() {
		if !hash.Equal(selectedParent) {
			rest = append(rest, hash)
		}
	}
	err = gm.sortMergeSet(stagingArea, rest)
	if err != nil {
		return nil, err
	}
	return append([]*externalapi.DomainHash{selectedParent}, rest...), nil
}
