package dagtraversalmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// CalculateChainPath returns the chain blocks of fromBlockHash above the highest
// common chain block, highest first, as Removed, and the chain blocks of
// toBlockHash above it, lowest first, as Added. Chains that share no block meet
// at the virtual genesis, so the whole chain of fromBlockHash is removed. A nil
// fromBlockHash adds the whole chain of toBlockHash.
func (dtm *dagTraversalManager) CalculateChainPath(stagingArea *model.StagingArea,
	fromBlockHash, toBlockHash *externalapi.DomainHash) (*externalapi.SelectedChainPath, error) {

	var added []*externalapi.DomainHash
	var commonAncestor *externalapi.DomainHash
	current := toBlockHash
	for {
		if fromBlockHash != nil {
			isCommonAncestor, err := dtm.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, current, fromBlockHash)
			if err != nil {
				return nil, err
			}
			if isCommonAncestor {
				commonAncestor = current
				break
			}
		}

		added = append(added, current)

		currentGHOSTDAGData, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}
		selectedParent := currentGHOSTDAGData.SelectedParent()
		if selectedParent == nil || selectedParent.Equal(model.VirtualGenesisBlockHash) {
			break
		}
		current = selectedParent
	}

	var removed []*externalapi.DomainHash
	current = fromBlockHash
	for current != nil && !current.Equal(model.VirtualGenesisBlockHash) {
		if commonAncestor != nil && current.Equal(commonAncestor) {
			break
		}
		removed = append(removed, current)

		currentGHOSTDAGData, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}
		current = currentGHOSTDAGData.SelectedParent()
	}

	for i, j := 0, len(added)-1; i < j; i, j = i+1, j-1 {
		added[i], added[j] = added[j], added[i]
	}

	return &externalapi.SelectedChainPath{
		Added:   added,
		Removed: removed,
	}, nil
}
