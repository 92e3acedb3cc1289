package dagtraversalmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// dagTraversalManager exposes methods for traversing blocks
// in the DAG
type dagTraversalManager struct {
	databaseContext model.DBReader

	dagTopologyManager model.DAGTopologyManager
	ghostdagDataStore  model.GHOSTDAGDataStore
}

// New instantiates a new DAGTraversalManager
func New(
	databaseContext model.DBReader,
	dagTopologyManager model.DAGTopologyManager,
	ghostdagDataStore model.GHOSTDAGDataStore) model.DAGTraversalManager {

	return &dagTraversalManager{
		databaseContext:    databaseContext,
		dagTopologyManager: dagTopologyManager,
		ghostdagDataStore:  ghostdagDataStore,
	}
}

// LowestChainBlockAboveOrEqualToBlueScore returns the lowest block in the selected
// parent chain of highHash whose blue score is at least blueScore
func (dtm *dagTraversalManager) LowestChainBlockAboveOrEqualToBlueScore(stagingArea *model.StagingArea,
	highHash *externalapi.DomainHash, blueScore uint64) (*externalapi.DomainHash, error) {

	highBlockGHOSTDAGData, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, highHash)
	if err != nil {
		return nil, err
	}
	if highBlockGHOSTDAGData.BlueScore() < blueScore {
		return nil, errors.Errorf("the given blue score %d is higher than block %s blue score of %d",
			blueScore, highHash, highBlockGHOSTDAGData.BlueScore())
	}

	currentHash := highHash
	currentGHOSTDAGData := highBlockGHOSTDAGData
	for {
		selectedParent := currentGHOSTDAGData.SelectedParent()
		if selectedParent == nil || selectedParent.Equal(model.VirtualGenesisBlockHash) {
			return currentHash, nil
		}
		selectedParentGHOSTDAGData, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, selectedParent)
		if err != nil {
			return nil, err
		}
		if selectedParentGHOSTDAGData.BlueScore() < blueScore {
			return currentHash, nil
		}
		currentHash = selectedParent
		currentGHOSTDAGData = selectedParentGHOSTDAGData
	}
}

// SelectedChainBetween returns the blocks of highHash's selected parent chain that
// lie above lowHash, ordered from lowest to highest. lowHash must be in that chain.
func (dtm *dagTraversalManager) SelectedChainBetween(stagingArea *model.StagingArea,
	lowHash, highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	var chain []*externalapi.DomainHash
	iterator := dtm.SelectedParentIterator(stagingArea, highHash)
	defer iterator.Close()
	for ok := iterator.First(); ok; ok = iterator.Next() {
		current, err := iterator.Get()
		if err != nil {
			return nil, err
		}
		if current.Equal(lowHash) {
			for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
				chain[i], chain[j] = chain[j], chain[i]
			}
			return chain, nil
		}
		chain = append(chain, current)
	}
	return nil, errors.Errorf("%s is not in the selected parent chain of %s", lowHash, highHash)
}
